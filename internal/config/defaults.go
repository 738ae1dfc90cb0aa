package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Entry is a single configuration key with its default value.
type Entry struct {
	Key         string
	Value       any
	Description string
}

// DefaultEntries returns the default configuration entries.
// These seed viper's defaults and the file written by WriteDefault.
func DefaultEntries() []Entry {
	return []Entry{
		// Output
		{
			Key:         "output.collision",
			Value:       "overwrite",
			Description: "What to do when two records write the same file: overwrite, skip or fail",
		},
		{
			Key:         "output.write_attempts",
			Value:       3,
			Description: "Attempts per output file before the record fails",
		},
		{
			Key:         "output.retry_delay",
			Value:       200 * time.Millisecond,
			Description: "Delay between write attempts",
		},

		// Manifest
		{
			Key:         "manifest.sheet",
			Value:       "",
			Description: "Spreadsheet sheet to read, empty for the first sheet",
		},
		{
			Key:         "manifest.file_name",
			Value:       "pdf_list.xlsx",
			Description: "File name used when generating a manifest",
		},

		// PDF
		{
			Key:         "pdf.validation",
			Value:       "relaxed",
			Description: "PDF validation mode: relaxed or strict",
		},

		// Logging
		{
			Key:         "log.level",
			Value:       "info",
			Description: "Log level: debug, info, warn or error",
		},
		{
			Key:         "log.format",
			Value:       "text",
			Description: "Log format: text or json",
		},

		// Watch
		{
			Key:         "watch.debounce",
			Value:       500 * time.Millisecond,
			Description: "Quiet period after a manifest change before a run starts",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// DefaultValue returns the default value for a config key.
func DefaultValue(key string) (any, error) {
	def := GetDefault(key)
	if def == nil {
		return nil, fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return def.Value, nil
}

// defaultTree nests the dotted default keys into an ordered YAML document.
// Durations are written in their string form so the file stays readable.
func defaultTree() yaml.MapSlice {
	var root yaml.MapSlice
	for _, entry := range DefaultEntries() {
		section, key, _ := strings.Cut(entry.Key, ".")

		value := entry.Value
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}

		i := indexOf(root, section)
		if i < 0 {
			root = append(root, yaml.MapItem{Key: section, Value: yaml.MapSlice{}})
			i = len(root) - 1
		}
		children := root[i].Value.(yaml.MapSlice)
		root[i].Value = append(children, yaml.MapItem{Key: key, Value: value})
	}
	return root
}

func indexOf(s yaml.MapSlice, key string) int {
	for i, item := range s {
		if item.Key == key {
			return i
		}
	}
	return -1
}
