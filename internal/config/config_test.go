package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default ListenAddr is 127.0.0.1:5000", func(t *testing.T) {
		t.Parallel()
		if cfg.ListenAddr != "127.0.0.1:5000" {
			t.Errorf("expected ListenAddr to be '127.0.0.1:5000', got '%s'", cfg.ListenAddr)
		}
	})

	t.Run("default Retention is 24 hours", func(t *testing.T) {
		t.Parallel()
		if cfg.Retention != 24*time.Hour {
			t.Errorf("expected Retention to be 24h, got %v", cfg.Retention)
		}
	})

	t.Run("default SweepSchedule is hourly", func(t *testing.T) {
		t.Parallel()
		if cfg.SweepSchedule != "@hourly" {
			t.Errorf("expected SweepSchedule to be '@hourly', got '%s'", cfg.SweepSchedule)
		}
	})

	t.Run("default Workers is 1", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 1 {
			t.Errorf("expected Workers to be 1, got %d", cfg.Workers)
		}
	})

	t.Run("default UploadDir is under the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if filepath.Dir(cfg.UploadDir) != XDGDataDir() {
			t.Errorf("expected UploadDir under %s, got %s", XDGDataDir(), cfg.UploadDir)
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case breaks exactly one rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		mutate   func(c *Config)
		expected error
	}{
		{"empty listen address", func(c *Config) { c.ListenAddr = "" }, ErrInvalidListenAddr},
		{"listen address without port", func(c *Config) { c.ListenAddr = "localhost" }, ErrInvalidListenAddr},
		{"empty upload dir", func(c *Config) { c.UploadDir = "" }, ErrNoUploadDir},
		{"zero retention", func(c *Config) { c.Retention = 0 }, ErrInvalidRetention},
		{"bad schedule", func(c *Config) { c.SweepSchedule = "every hour" }, ErrInvalidSweepSchedule},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero upload size", func(c *Config) { c.MaxUploadSize = 0 }, ErrInvalidMaxUploadSize},
		{"zero max pointers", func(c *Config) { c.MaxPointers = 0 }, ErrInvalidMaxPointers},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"unknown format", func(c *Config) { c.ReportFormat = "pdf" }, ErrInvalidReportFormat},
		{"xlsx without file", func(c *Config) { c.ReportFormat = FormatXLSX }, ErrXLSXNeedsFile},
		{"unknown detector", func(c *Config) { c.Detectors = []string{"date", "iban"} }, ErrInvalidDetectors},
		{"unclassified detector", func(c *Config) { c.Detectors = []string{"unclassified"} }, ErrInvalidDetectors},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
		})
	}

	t.Run("xlsx with file is valid", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ReportFormat = FormatXLSX
		cfg.ReportFile = "out.xlsx"
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("detector subset is valid", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Detectors = []string{"date", "currency_amount", "date"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("listen on all interfaces", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ListenAddr = ":8080"
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

// TestLoadConfigFile tests YAML and TOML configuration files.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".docpointer")
		content := `listen: "0.0.0.0:9000"
retention: 2h
workers: 4
save_to_db: true
format: markdown
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ListenAddr != "0.0.0.0:9000" {
			t.Errorf("expected ListenAddr 0.0.0.0:9000, got %s", cfg.ListenAddr)
		}
		if cfg.Retention != 2*time.Hour {
			t.Errorf("expected Retention 2h, got %v", cfg.Retention)
		}
		if cfg.Workers != 4 {
			t.Errorf("expected Workers 4, got %d", cfg.Workers)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.ReportFormat != FormatMarkdown {
			t.Errorf("expected format markdown, got %s", cfg.ReportFormat)
		}
		if cfg.RequestTimeout != DefaultRequestTimeout {
			t.Errorf("expected untouched RequestTimeout, got %v", cfg.RequestTimeout)
		}
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		content := `upload_dir = "/tmp/uploads"
request_timeout = "15s"
sweep_schedule = "*/10 * * * *"
max_pointers = 5
detectors = ["email", "phone"]
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.UploadDir != "/tmp/uploads" {
			t.Errorf("expected UploadDir /tmp/uploads, got %s", cfg.UploadDir)
		}
		if cfg.RequestTimeout != 15*time.Second {
			t.Errorf("expected RequestTimeout 15s, got %v", cfg.RequestTimeout)
		}
		if cfg.SweepSchedule != "*/10 * * * *" {
			t.Errorf("unexpected schedule %q", cfg.SweepSchedule)
		}
		if cfg.MaxPointers != 5 {
			t.Errorf("expected MaxPointers 5, got %d", cfg.MaxPointers)
		}
		if diff := cmp.Diff([]string{"email", "phone"}, cfg.Detectors); diff != "" {
			t.Errorf("detectors mismatch (-want +got):\n%s", diff)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Parallel()

		cf := &File{Retention: "one day"}
		if err := cf.Apply(NewConfig()); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("expected ErrInvalidDuration, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".docpointer")
		if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestLoad tests building a Config from an explicit file.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("explicit path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "docpointer.yaml")
		if err := os.WriteFile(path, []byte("max_pointers: 7\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxPointers != 7 {
			t.Errorf("expected MaxPointers 7, got %d", cfg.MaxPointers)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("expected ConfigFilePath %s, got %s", path, cfg.ConfigFilePath)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

// TestFindConfigFile tests explicit path handling.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if got := FindConfigFile(path); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}
	if got := FindConfigFile(path + ".missing"); got != "" {
		t.Errorf("expected empty path, got %s", got)
	}
}
