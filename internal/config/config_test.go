package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.IncludeMetadata || cfg.ExtractTables || cfg.NormalizeText {
		t.Errorf("Expected every toggle to be off by default, got %s", cfg)
	}

	if cfg.TableStrategy != "lines" {
		t.Errorf("Expected default table strategy to be 'lines', got '%s'", cfg.TableStrategy)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("Expected default log level to be 'error', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 512*1024*1024 {
		t.Errorf("Expected default max file size to be 512MiB, got %d", cfg.MaxFileSize)
	}

	if cfg.OutputPath != "" {
		t.Errorf("Expected no default output path, got '%s'", cfg.OutputPath)
	}
}

func TestParseToggle(t *testing.T) {
	tests := map[string]bool{
		"true":  true,
		"TRUE":  true,
		"True":  true,
		"tRuE":  true,
		"false": false,
		"":      false,
		"1":     false,
		"yes":   false,
		" true": false,
		"truee": false,
	}

	for in, want := range tests {
		if got := ParseToggle(in); got != want {
			t.Errorf("ParseToggle(%q) = %v, want %v", in, got, want)
		}
	}
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.PDFPath = "report.pdf"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with a path",
			mutate: func(*Config) {},
		},
		{
			name:   "text strategy",
			mutate: func(c *Config) { c.TableStrategy = "text" },
		},
		{
			name:   "debug logging",
			mutate: func(c *Config) { c.LogLevel = "debug" },
		},
		{
			name:    "empty path",
			mutate:  func(c *Config) { c.PDFPath = "" },
			wantErr: "PDF path cannot be empty",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.TableStrategy = "stream" },
			wantErr: "invalid table strategy: stream",
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "negative max file size",
			mutate:  func(c *Config) { c.MaxFileSize = -1 },
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log level: verbose",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsDebug(t *testing.T) {
	cfg := validConfig()
	if cfg.IsDebug() {
		t.Error("IsDebug() = true for the default log level")
	}
	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("IsDebug() = false for debug log level")
	}
}

func TestConfigString(t *testing.T) {
	cfg := validConfig()
	cfg.ExtractTables = true
	s := cfg.String()

	for _, want := range []string{"PDFPath: report.pdf", "ExtractTables: true", "TableStrategy: lines", "LogLevel: error"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %s, missing %q", s, want)
		}
	}
}
