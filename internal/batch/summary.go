package batch

// Progress is reported once per record, after it reaches a terminal state.
type Progress struct {
	Completed  int     // records finished so far, including this one
	Total      int     // records in the manifest
	FileName   string  // source file of this record
	InvoiceNum string  // invoice number of this record
	Outcome    Outcome // done, skipped or failed
	State      State   // terminal state: done, skipped or failed
	Err        error   // nil when Outcome is done
}

// Issue describes a record that was skipped or failed. State is the last
// state the record reached before it stopped.
type Issue struct {
	FileName   string  `json:"file_name" yaml:"file_name"`
	InvoiceNum string  `json:"invoice_num" yaml:"invoice_num"`
	Outcome    Outcome `json:"outcome" yaml:"outcome"`
	Kind       Kind    `json:"kind" yaml:"kind"`
	State      State   `json:"state" yaml:"state"`
	Message    string  `json:"message" yaml:"message"`
}

// Collision records two manifest rows resolving to the same output file.
type Collision struct {
	Destination string `json:"destination" yaml:"destination"`
	FirstFile   string `json:"first_file" yaml:"first_file"`
	File        string `json:"file" yaml:"file"`
	Resolution  string `json:"resolution" yaml:"resolution"`
}

// Summary is the batch-level result.
type Summary struct {
	RunID      string      `json:"run_id" yaml:"run_id"`
	Total      int         `json:"total" yaml:"total"`
	Done       int         `json:"done" yaml:"done"`
	Skipped    int         `json:"skipped" yaml:"skipped"`
	Failed     int         `json:"failed" yaml:"failed"`
	Canceled   bool        `json:"canceled,omitempty" yaml:"canceled,omitempty"`
	Issues     []Issue     `json:"issues,omitempty" yaml:"issues,omitempty"`
	Collisions []Collision `json:"collisions,omitempty" yaml:"collisions,omitempty"`
}

// Processed returns the number of records that reached a terminal state.
func (s *Summary) Processed() int {
	return s.Done + s.Skipped + s.Failed
}

// OK reports whether no record failed.
func (s *Summary) OK() bool {
	return s.Failed == 0
}
