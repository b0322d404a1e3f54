package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf2json/internal/pdf/tables"
	"github.com/a3tai/pdf2json/internal/pdf/wrapper"
)

const (
	// Application identity
	AppName = "pdf2json"
	Version = "1.0.0"

	// EnvPrefix prefixes every environment variable, e.g. PDF2JSON_EXTRACT_TABLES
	EnvPrefix = "PDF2JSON"

	// Default values
	DefaultLogLevel    = "error"
	DefaultMaxFileSize = wrapper.DefaultMaxFileSize
)

// Flag and viper keys
const (
	KeyIncludeMetadata = "include-metadata"
	KeyExtractTables   = "extract-tables"
	KeyOutput          = "output"
	KeyTableStrategy   = "table-strategy"
	KeyNormalizeText   = "normalize-text"
	KeyLogLevel        = "log-level"
	KeyMaxFileSize     = "max-file-size"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Config holds all configuration for one conversion
type Config struct {
	// Input and output
	PDFPath    string
	OutputPath string

	// Conversion toggles
	IncludeMetadata bool
	ExtractTables   bool
	NormalizeText   bool
	TableStrategy   string

	// Application configuration
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with every optional part disabled
func DefaultConfig() *Config {
	return &Config{
		TableStrategy: tables.DefaultStrategy,
		LogLevel:      DefaultLogLevel,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// ParseToggle reports whether a toggle value enables its option. Only a
// case-insensitive "true" does; anything else, including "1" or "yes", is false.
func ParseToggle(value string) bool {
	return strings.EqualFold(value, "true")
}

// DefineFlags registers the conversion flags on flags
func DefineFlags(flags *pflag.FlagSet) {
	cfg := DefaultConfig()
	flags.String(KeyIncludeMetadata, "false", "Include document metadata ('true' enables, case-insensitive)")
	flags.String(KeyExtractTables, "false", "Extract tables ('true' enables, case-insensitive)")
	flags.StringP(KeyOutput, "o", "", "Also write the pretty-printed JSON to this file (only on success)")
	flags.String(KeyTableStrategy, cfg.TableStrategy,
		fmt.Sprintf("Table detection strategy (%s)", strings.Join(tables.Strategies(), ", ")))
	flags.String(KeyNormalizeText, "false", "NFKC-normalize extracted text ('true' enables)")
	flags.String(KeyLogLevel, cfg.LogLevel, "Log level (debug, info, warn, error); diagnostics go to stderr at debug")
	flags.Int64(KeyMaxFileSize, cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// Load builds the configuration for pdfPath from flags, PDF2JSON_* environment
// variables and defaults, in that order of precedence, and validates it
func Load(flags *pflag.FlagSet, pdfPath string) (*Config, error) {
	v := viper.New()
	cfg := DefaultConfig()

	setupViperEnvironment(v, cfg)
	if err := bindFlagsToViper(v, flags); err != nil {
		return nil, err
	}
	populateConfigFromViper(v, cfg)
	cfg.PDFPath = pdfPath

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyIncludeMetadata, "false")
	v.SetDefault(KeyExtractTables, "false")
	v.SetDefault(KeyOutput, cfg.OutputPath)
	v.SetDefault(KeyTableStrategy, cfg.TableStrategy)
	v.SetDefault(KeyNormalizeText, "false")
	v.SetDefault(KeyLogLevel, cfg.LogLevel)
	v.SetDefault(KeyMaxFileSize, cfg.MaxFileSize)
}

// bindFlagsToViper binds the flags registered by DefineFlags. Flags missing
// from the set are skipped so callers may expose a subset.
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	keys := []string{
		KeyIncludeMetadata, KeyExtractTables, KeyOutput, KeyTableStrategy,
		KeyNormalizeText, KeyLogLevel, KeyMaxFileSize,
	}
	for _, key := range keys {
		flag := flags.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.IncludeMetadata = ParseToggle(v.GetString(KeyIncludeMetadata))
	cfg.ExtractTables = ParseToggle(v.GetString(KeyExtractTables))
	cfg.NormalizeText = ParseToggle(v.GetString(KeyNormalizeText))
	cfg.OutputPath = v.GetString(KeyOutput)
	cfg.TableStrategy = strings.ToLower(v.GetString(KeyTableStrategy))
	cfg.LogLevel = strings.ToLower(v.GetString(KeyLogLevel))
	cfg.MaxFileSize = v.GetInt64(KeyMaxFileSize)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PDFPath == "" {
		return errors.New("PDF path cannot be empty")
	}

	if !slices.Contains(tables.Strategies(), c.TableStrategy) {
		return fmt.Errorf("invalid table strategy: %s (must be one of: %s)",
			c.TableStrategy, strings.Join(tables.Strategies(), ", "))
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{PDFPath: %s, IncludeMetadata: %t, ExtractTables: %t, TableStrategy: %s, "+
		"NormalizeText: %t, OutputPath: %s, LogLevel: %s, MaxFileSize: %d}",
		c.PDFPath, c.IncludeMetadata, c.ExtractTables, c.TableStrategy,
		c.NormalizeText, c.OutputPath, c.LogLevel, c.MaxFileSize)
}
