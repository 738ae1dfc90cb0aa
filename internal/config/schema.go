package config

import "time"

// Config holds stamper configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Output   OutputCfg   `mapstructure:"output" json:"output" yaml:"output"`
	Manifest ManifestCfg `mapstructure:"manifest" json:"manifest" yaml:"manifest"`
	PDF      PDFCfg      `mapstructure:"pdf" json:"pdf" yaml:"pdf"`
	Log      LogCfg      `mapstructure:"log" json:"log" yaml:"log"`
	Watch    WatchCfg    `mapstructure:"watch" json:"watch" yaml:"watch"`
}

// OutputCfg controls how stamped files are written.
type OutputCfg struct {
	Collision     string        `mapstructure:"collision" json:"collision" yaml:"collision"`                // "overwrite", "skip", "fail"
	WriteAttempts uint          `mapstructure:"write_attempts" json:"write_attempts" yaml:"write_attempts"` // attempts per output file
	RetryDelay    time.Duration `mapstructure:"retry_delay" json:"retry_delay" yaml:"retry_delay"`
}

// ManifestCfg controls manifest lookup.
type ManifestCfg struct {
	Sheet    string `mapstructure:"sheet" json:"sheet" yaml:"sheet"`             // xlsx sheet, empty for the first
	FileName string `mapstructure:"file_name" json:"file_name" yaml:"file_name"` // name used by "manifest generate"
}

// PDFCfg controls PDF parsing.
type PDFCfg struct {
	Validation string `mapstructure:"validation" json:"validation" yaml:"validation"` // "relaxed" or "strict"
}

// LogCfg controls the process logger.
type LogCfg struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`    // debug, info, warn, error
	Format string `mapstructure:"format" json:"format" yaml:"format"` // text or json
}

// WatchCfg controls the manifest watcher.
type WatchCfg struct {
	Debounce time.Duration `mapstructure:"debounce" json:"debounce" yaml:"debounce"`
}
