package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harrison/filescan/internal/fileutil"
	"github.com/harrison/filescan/internal/logger"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = ".filescan.yaml"

const (
	// DefaultFlushBytes is the flush threshold used when no buffer size is
	// configured: 5000 records of 256 bytes.
	DefaultFlushBytes = 5000 * 256

	// MaxFlushBytes caps the per-worker buffer.
	MaxFlushBytes = 1 << 30

	// MaxBufferKB is the largest buffer_kb whose threshold stays within MaxFlushBytes.
	MaxBufferKB = MaxFlushBytes / 1000
)

// ConfigError reports an invalid or missing configuration value.
type ConfigError struct {
	Field string
	Msg   string
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Config represents filescan configuration options
type Config struct {
	// Root is the directory whose subdirectories are scanned
	Root string `yaml:"root"`

	// Prefix filters top-level directory names (empty = no filter)
	Prefix string `yaml:"prefix"`

	// PrefixMode selects how Prefix is applied (anchored, substring)
	PrefixMode string `yaml:"prefix_mode"`

	// BufferKB is the per-worker buffer size in KB (0 = DefaultFlushBytes)
	BufferKB int `yaml:"buffer_kb"`

	// Output is the destination file
	Output string `yaml:"output"`

	// FileTypes restricts output to these extensions (empty = all files)
	FileTypes []string `yaml:"file_types"`

	// Workers is the worker pool size (0 = number of CPUs)
	Workers int `yaml:"workers"`

	// BOM prefixes the output with a UTF-8 byte-order mark
	BOM bool `yaml:"bom"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFile mirrors log output into a file (empty = console only)
	LogFile string `yaml:"log_file"`

	// ProgressInterval is how often the progress line is redrawn (0 = off)
	ProgressInterval time.Duration `yaml:"progress_interval"`

	// HistoryDB is the run history database (empty = history disabled)
	HistoryDB string `yaml:"history_db"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		PrefixMode:       string(fileutil.PrefixAnchored),
		Output:           "file_list.csv",
		LogLevel:         "info",
		ProgressInterval: time.Second,
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointers distinguish "absent" from zero values; durations arrive as strings
	type yamlConfig struct {
		Root             *string  `yaml:"root"`
		Prefix           *string  `yaml:"prefix"`
		PrefixMode       *string  `yaml:"prefix_mode"`
		BufferKB         *int     `yaml:"buffer_kb"`
		Output           *string  `yaml:"output"`
		FileTypes        []string `yaml:"file_types"`
		Workers          *int     `yaml:"workers"`
		BOM              *bool    `yaml:"bom"`
		LogLevel         *string  `yaml:"log_level"`
		LogFile          *string  `yaml:"log_file"`
		ProgressInterval *string  `yaml:"progress_interval"`
		HistoryDB        *string  `yaml:"history_db"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Root != nil {
		cfg.Root = *yamlCfg.Root
	}
	if yamlCfg.Prefix != nil {
		cfg.Prefix = *yamlCfg.Prefix
	}
	if yamlCfg.PrefixMode != nil {
		cfg.PrefixMode = *yamlCfg.PrefixMode
	}
	if yamlCfg.BufferKB != nil {
		cfg.BufferKB = *yamlCfg.BufferKB
	}
	if yamlCfg.Output != nil {
		cfg.Output = *yamlCfg.Output
	}
	if yamlCfg.FileTypes != nil {
		cfg.FileTypes = yamlCfg.FileTypes
	}
	if yamlCfg.Workers != nil {
		cfg.Workers = *yamlCfg.Workers
	}
	if yamlCfg.BOM != nil {
		cfg.BOM = *yamlCfg.BOM
	}
	if yamlCfg.LogLevel != nil {
		cfg.LogLevel = *yamlCfg.LogLevel
	}
	if yamlCfg.LogFile != nil {
		cfg.LogFile = *yamlCfg.LogFile
	}
	if yamlCfg.ProgressInterval != nil {
		interval, err := time.ParseDuration(*yamlCfg.ProgressInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid progress_interval format %q: %w", *yamlCfg.ProgressInterval, err)
		}
		cfg.ProgressInterval = interval
	}
	if yamlCfg.HistoryDB != nil {
		cfg.HistoryDB = *yamlCfg.HistoryDB
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .filescan.yaml in the specified directory
// If the file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, FileName))
}

// Overrides carries CLI flag values. A nil field was not set on the command line.
type Overrides struct {
	Root             *string
	Prefix           *string
	PrefixMode       *string
	Buffer           *string
	Output           *string
	FileTypes        *string
	Workers          *int
	BOM              *bool
	LogLevel         *string
	LogFile          *string
	ProgressInterval *time.Duration
	HistoryDB        *string
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// Returns a *ConfigError when the buffer flag is malformed
func (c *Config) MergeWithFlags(o Overrides) error {
	if o.Root != nil {
		c.Root = *o.Root
	}
	if o.Prefix != nil {
		c.Prefix = *o.Prefix
	}
	if o.PrefixMode != nil {
		c.PrefixMode = *o.PrefixMode
	}
	if o.Buffer != nil {
		kb, err := ParseBufferKB(*o.Buffer)
		if err != nil {
			return err
		}
		c.BufferKB = kb
	}
	if o.Output != nil {
		c.Output = *o.Output
	}
	if o.FileTypes != nil {
		c.FileTypes = fileutil.ParseFileTypes(*o.FileTypes)
	}
	if o.Workers != nil {
		c.Workers = *o.Workers
	}
	if o.BOM != nil {
		c.BOM = *o.BOM
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogFile != nil {
		c.LogFile = *o.LogFile
	}
	if o.ProgressInterval != nil {
		c.ProgressInterval = *o.ProgressInterval
	}
	if o.HistoryDB != nil {
		c.HistoryDB = *o.HistoryDB
	}
	return nil
}

// ParseBufferKB parses a --buffer value. A bare integer is a size in KB;
// a value with a unit ("512KB", "2MB", "1MiB") is converted to whole KB.
func ParseBufferKB(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, configErrorf("buffer", "value is empty")
	}

	if kb, err := strconv.Atoi(s); err == nil {
		if kb <= 0 {
			return 0, configErrorf("buffer", "must be > 0, got %d", kb)
		}
		if kb > MaxBufferKB {
			return 0, configErrorf("buffer", "must be <= %d, got %d", MaxBufferKB, kb)
		}
		return kb, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, configErrorf("buffer", "malformed size %q", s)
	}
	if n < 1000 {
		return 0, configErrorf("buffer", "size %q is smaller than 1 KB", s)
	}
	if n/1000 > MaxBufferKB {
		return 0, configErrorf("buffer", "size %q exceeds %s", s, humanize.IBytes(MaxFlushBytes))
	}
	return int(n / 1000), nil
}

// FlushThreshold returns the per-worker flush threshold in bytes.
// Sizes are whole 256-byte records: (kb*1000/256)*256.
func (c *Config) FlushThreshold() int {
	if c.BufferKB == 0 {
		return DefaultFlushBytes
	}
	return (c.BufferKB * 1000 / 256) * 256
}

// Validate validates the configuration values
// Returns a *ConfigError if any values are invalid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return configErrorf("root", "scan root is required (use --path)")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return configErrorf("root", "%s does not exist", c.Root)
		}
		return configErrorf("root", "%v", err)
	}
	if !info.IsDir() {
		return configErrorf("root", "%s is not a directory", c.Root)
	}

	if _, err := fileutil.ParsePrefixMode(c.PrefixMode); err != nil {
		return configErrorf("prefix_mode", "%v", err)
	}

	if c.BufferKB < 0 {
		return configErrorf("buffer_kb", "must be > 0, got %d", c.BufferKB)
	}
	if c.BufferKB > MaxBufferKB {
		return configErrorf("buffer_kb", "must be <= %d, got %d", MaxBufferKB, c.BufferKB)
	}

	if strings.TrimSpace(c.Output) == "" {
		return configErrorf("output", "output file is required")
	}

	if c.Workers < 0 {
		return configErrorf("workers", "must be >= 0, got %d", c.Workers)
	}

	if !logger.ValidLogLevel(c.LogLevel) {
		return configErrorf("log_level", "invalid level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.ProgressInterval < 0 {
		return configErrorf("progress_interval", "must be >= 0, got %v", c.ProgressInterval)
	}

	return nil
}

// Extensions returns FileTypes normalized the way the file filter expects.
func (c *Config) Extensions() []string {
	return fileutil.ParseFileTypes(strings.Join(c.FileTypes, ","))
}
