package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestNewManager(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		mgr, err := NewManager("")
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		want := &Config{
			Output:   OutputCfg{Collision: "overwrite", WriteAttempts: 3, RetryDelay: 200 * time.Millisecond},
			Manifest: ManifestCfg{FileName: "pdf_list.xlsx"},
			PDF:      PDFCfg{Validation: "relaxed"},
			Log:      LogCfg{Level: "info", Format: "text"},
			Watch:    WatchCfg{Debounce: 500 * time.Millisecond},
		}
		if diff := cmp.Diff(want, mgr.Get()); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
		if mgr.ConfigFile() != "" {
			t.Errorf("ConfigFile() = %q, want empty", mgr.ConfigFile())
		}
	})

	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
output:
  collision: fail
  retry_delay: 1s
manifest:
  sheet: Invoices
`)
		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Output.Collision != "fail" {
			t.Errorf("expected fail, got %s", cfg.Output.Collision)
		}
		if cfg.Output.RetryDelay != time.Second {
			t.Errorf("expected 1s, got %s", cfg.Output.RetryDelay)
		}
		if cfg.Output.WriteAttempts != 3 {
			t.Errorf("expected default write_attempts 3, got %d", cfg.Output.WriteAttempts)
		}
		if cfg.Manifest.Sheet != "Invoices" {
			t.Errorf("expected Invoices, got %s", cfg.Manifest.Sheet)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		configFile := writeConfig(t, "output:\n  collision: fail\n")
		t.Setenv("STAMPER_OUTPUT_COLLISION", "skip")
		t.Setenv("STAMPER_LOG_LEVEL", "debug")

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().Output.Collision; got != "skip" {
			t.Errorf("expected skip, got %s", got)
		}
		if got := mgr.Get().Log.Level; got != "debug" {
			t.Errorf("expected debug, got %s", got)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		configFile := writeConfig(t, "output:\n  collision: merge\n")
		if _, err := NewManager(configFile); !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid, got %v", err)
		}
	})

	t.Run("rejects malformed file", func(t *testing.T) {
		configFile := writeConfig(t, "output: [unclosed\n")
		if _, err := NewManager(configFile); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Output: OutputCfg{Collision: "overwrite", WriteAttempts: 1},
			PDF:    PDFCfg{Validation: "strict"},
			Log:    LogCfg{Level: "warn", Format: "json"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"zero attempts", func(c *Config) { c.Output.WriteAttempts = 0 }, false},
		{"negative delay", func(c *Config) { c.Output.RetryDelay = -time.Second }, false},
		{"unknown validation", func(c *Config) { c.PDF.Validation = "lenient" }, false},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to load written default: %v", err)
	}
	cfg := mgr.Get()
	if cfg.Output.RetryDelay != 200*time.Millisecond {
		t.Errorf("expected 200ms, got %s", cfg.Output.RetryDelay)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %s", cfg.Watch.Debounce)
	}
	if cfg.Manifest.FileName != "pdf_list.xlsx" {
		t.Errorf("expected pdf_list.xlsx, got %s", cfg.Manifest.FileName)
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("output.collision")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != "overwrite" {
			t.Errorf("GetDefault() Value = %v, want %q", entry.Value, "overwrite")
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		if entry := GetDefault("does.not.exist"); entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
		if _, err := DefaultValue("does.not.exist"); !errors.Is(err, ErrNoDefault) {
			t.Errorf("DefaultValue() error = %v, want ErrNoDefault", err)
		}
	})
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "log:\n  level: info\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "log:\n  level: info\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().Output.Collision
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "output:\n  collision: overwrite\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.Output.Collision)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("output:\n  collision: skip\n"), 0o644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Output.Collision; got != "skip" {
		t.Errorf("config not updated: expected skip, got %s", got)
	}
	if v := lastValue.Load(); v != "skip" {
		t.Errorf("callback received wrong value: expected skip, got %v", v)
	}
}
