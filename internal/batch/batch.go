// Package batch runs the stamping pipeline over a manifest.
//
// Records are processed strictly in manifest order, one at a time. For each
// record the source PDF is located and read, an overlay is generated for
// its first page, composited, the document reassembled and written to
// {dest}/{InvoiceNum}.pdf. Per-record errors never abort the batch; they
// are collected into the Summary.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jackzampolin/stamper/internal/compose"
	"github.com/jackzampolin/stamper/internal/manifest"
	"github.com/jackzampolin/stamper/internal/overlay"
	"github.com/jackzampolin/stamper/internal/pdfdoc"
)

var (
	// ErrWrite indicates the output file could not be written.
	ErrWrite = errors.New("failed to write output")

	// ErrCollision indicates a record resolving to an output file already
	// written earlier in the same run.
	ErrCollision = errors.New("output name collision")
)

// CollisionPolicy decides what happens when two records share an output name.
type CollisionPolicy string

const (
	// CollisionOverwrite lets the later record replace the earlier output.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionSkip keeps the earlier output and skips the later record.
	CollisionSkip CollisionPolicy = "skip"
	// CollisionFail keeps the earlier output and fails the later record.
	CollisionFail CollisionPolicy = "fail"
)

// ParseCollisionPolicy validates a policy name. Empty means overwrite.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionOverwrite:
		return CollisionOverwrite, nil
	case CollisionSkip, CollisionFail:
		return CollisionPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (want overwrite, skip or fail)", s)
	}
}

// Options configures a Processor.
type Options struct {
	SourceDir string // folder holding the source PDFs
	DestDir   string // folder receiving {InvoiceNum}.pdf

	Collision     CollisionPolicy
	WriteAttempts uint          // attempts per output write, at least 1
	RetryDelay    time.Duration // delay between write attempts

	PDFConfig *model.Configuration // nil uses relaxed validation

	Logger     *slog.Logger
	OnProgress func(Progress)
}

// Processor runs batches. A Processor is not safe for concurrent use.
type Processor struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Processor.
func New(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Collision == "" {
		opts.Collision = CollisionOverwrite
	}
	if opts.WriteAttempts == 0 {
		opts.WriteAttempts = 1
	}
	if opts.PDFConfig == nil {
		opts.PDFConfig = pdfdoc.NewConfiguration(pdfdoc.ValidationRelaxed)
	}
	return &Processor{opts: opts, logger: logger}
}

// run holds the state of a single Run call.
type run struct {
	summary *Summary
	written map[string]string // destination path → source file that wrote it
	logger  *slog.Logger
}

// Run processes records in order. Cancellation is checked between records;
// when ctx is done the partial summary is returned with ctx.Err().
func (p *Processor) Run(ctx context.Context, records []manifest.Record) (*Summary, error) {
	r := &run{
		summary: &Summary{
			RunID: uuid.NewString(),
			Total: len(records),
		},
		written: make(map[string]string),
	}
	r.logger = p.logger.With("run_id", r.summary.RunID)

	r.logger.Info("starting batch",
		"records", len(records),
		"source", p.opts.SourceDir,
		"dest", p.opts.DestDir,
		"collision", p.opts.Collision,
	)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			r.summary.Canceled = true
			r.logger.Warn("batch canceled", "processed", i, "total", len(records))
			return r.summary, err
		}

		state, err := p.process(ctx, r, rec)
		outcome := r.record(rec, state, err)

		if p.opts.OnProgress != nil {
			p.opts.OnProgress(Progress{
				Completed:  i + 1,
				Total:      len(records),
				FileName:   rec.FileName,
				InvoiceNum: rec.InvoiceNum,
				Outcome:    outcome,
				State:      terminal(state, err),
				Err:        err,
			})
		}
	}

	r.logger.Info("batch complete",
		"done", r.summary.Done,
		"skipped", r.summary.Skipped,
		"failed", r.summary.Failed,
		"collisions", len(r.summary.Collisions),
	)
	return r.summary, nil
}

// record folds one record's result into the summary and returns its outcome.
func (r *run) record(rec manifest.Record, state State, err error) Outcome {
	if err == nil {
		r.summary.Done++
		return OutcomeDone
	}

	outcome := OutcomeFailed
	kind := classify(err)
	if terminal(state, err) == StateSkipped {
		outcome = OutcomeSkipped
		r.summary.Skipped++
	} else {
		r.summary.Failed++
	}

	r.summary.Issues = append(r.summary.Issues, Issue{
		FileName:   rec.FileName,
		InvoiceNum: rec.InvoiceNum,
		Outcome:    outcome,
		Kind:       kind,
		State:      state,
		Message:    err.Error(),
	})

	log := r.logger.With("file", rec.FileName, "kind", kind)
	if outcome == OutcomeSkipped {
		log.Warn("record skipped", "error", err)
	} else {
		log.Error("record failed", "state", state, "error", err)
	}
	return outcome
}

// collide notes that file resolved to an output already written from first.
func (r *run) collide(dest, first, file string, resolution CollisionPolicy) {
	r.summary.Collisions = append(r.summary.Collisions, Collision{
		Destination: dest,
		FirstFile:   first,
		File:        file,
		Resolution:  string(resolution),
	})
}

// process drives one record through the state machine. It returns the
// terminal state on success, StateSkipped when the record was skipped, or
// the last state reached before the failing step.
func (p *Processor) process(ctx context.Context, r *run, rec manifest.Record) (State, error) {
	log := r.logger.With("file", rec.FileName, "invoice", rec.InvoiceNum)
	state := StatePending

	// pending → located
	if err := rec.Validate(); err != nil {
		return state, err
	}
	src := filepath.Join(p.opts.SourceDir, rec.FileName)
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StateSkipped, fmt.Errorf("%w: %s", pdfdoc.ErrNotFound, rec.FileName)
		}
		return state, fmt.Errorf("%w: %w", pdfdoc.ErrParse, err)
	}

	dest := filepath.Join(p.opts.DestDir, rec.OutputName())
	first, collides := r.written[dest]
	if collides {
		log = log.With("destination", dest, "first_file", first, "policy", p.opts.Collision)
		switch p.opts.Collision {
		case CollisionSkip, CollisionFail:
			r.collide(dest, first, rec.FileName, p.opts.Collision)
			log.Warn("output name collision")
			err := fmt.Errorf("%w: %s already written from %s", ErrCollision, rec.OutputName(), first)
			if p.opts.Collision == CollisionSkip {
				return StateSkipped, err
			}
			return state, err
		}
	}
	state = StateLocated

	// located → read
	doc, err := pdfdoc.Open(src, p.opts.PDFConfig)
	if err != nil {
		return state, err
	}
	state = StateRead

	// read → annotated
	page, err := doc.Page(0)
	if err != nil {
		return state, err
	}
	ov, err := overlay.Build(page.Geometry(), rec.VoucherNum)
	if err != nil {
		return state, err
	}
	if !rec.HasVoucher() {
		log.Debug("no voucher number, leaving first page unmarked")
	}
	state = StateAnnotated

	// annotated → composited
	composited, err := compose.Composite(page, ov)
	if err != nil {
		return state, err
	}
	state = StateComposited

	// composited → assembled
	out, err := pdfdoc.Assemble(composited, doc)
	if err != nil {
		return state, err
	}
	if out.PageCount() != doc.PageCount() {
		return state, fmt.Errorf("assembled %d pages from %d", out.PageCount(), doc.PageCount())
	}
	state = StateAssembled

	// assembled → written. The document is serialized once and only the
	// file write is retried; cancellation only takes effect between records.
	data, err := out.Bytes()
	if err != nil {
		return state, err
	}
	err = writeAtomic(context.WithoutCancel(ctx), dest, p.opts.WriteAttempts, p.opts.RetryDelay, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return state, err
	}
	if collides {
		r.collide(dest, first, rec.FileName, CollisionOverwrite)
		log.Warn("output name collision, earlier output replaced")
	}
	r.written[dest] = rec.FileName
	state = StateWritten

	log.Info("record stamped",
		"pages", out.PageCount(),
		"geometry", page.Geometry().String(),
		"voucher", rec.VoucherNum,
		"output", dest,
		"state", state,
	)
	return StateDone, nil
}
