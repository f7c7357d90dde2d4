package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"doxyscan/internal/errors"
	"doxyscan/internal/paths"
)

// SchemaVersion is the config file layout this build reads.
const SchemaVersion = 1

// Config represents the complete doxyscan configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Commands   CommandsConfig   `json:"commands" mapstructure:"commands"`
	Highlight  HighlightConfig  `json:"highlight" mapstructure:"highlight"`
	Completion CompletionConfig `json:"completion" mapstructure:"completion"`
	Index      IndexConfig      `json:"index" mapstructure:"index"`
	Watch      WatchConfig      `json:"watch" mapstructure:"watch"`
	Output     OutputConfig     `json:"output" mapstructure:"output"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// CommandsConfig selects the command vocabulary
type CommandsConfig struct {
	// TablePath is a TOML command table; empty uses the built-in table
	TablePath string `json:"tablePath" mapstructure:"tablePath"`
}

// HighlightConfig toggles highlighting per comment style
type HighlightConfig struct {
	DocLineComments  bool `json:"docLineComments" mapstructure:"docLineComments"`
	DocBlockComments bool `json:"docBlockComments" mapstructure:"docBlockComments"`
	Emphasis         bool `json:"emphasis" mapstructure:"emphasis"`
	PlainEmphasis    bool `json:"plainEmphasis" mapstructure:"plainEmphasis"`
}

// CompletionConfig selects the declaration extractor
type CompletionConfig struct {
	// Backend is "heuristic" or "treesitter"
	Backend string `json:"backend" mapstructure:"backend"`
}

// IndexConfig controls which files the index and lint commands visit
type IndexConfig struct {
	Extensions       []string `json:"extensions" mapstructure:"extensions"`
	IgnoreDirs       []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	Workers          int      `json:"workers" mapstructure:"workers"`
}

// WatchConfig controls index --watch
type WatchConfig struct {
	PollIntervalMs int `json:"pollIntervalMs" mapstructure:"pollIntervalMs"`
	DebounceMs     int `json:"debounceMs" mapstructure:"debounceMs"` // quiet period before re-indexing
}

// OutputConfig contains CLI output defaults
type OutputConfig struct {
	Format string `json:"format" mapstructure:"format"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       bool   `json:"file" mapstructure:"file"`             // also log to .doxyscan/logs
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`       // e.g. "10MB"; empty disables rotation
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"` // rotated files to keep
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: SchemaVersion,
		Highlight: HighlightConfig{
			DocLineComments:  true,
			DocBlockComments: true,
			Emphasis:         true,
		},
		Completion: CompletionConfig{
			Backend: "heuristic",
		},
		Index: IndexConfig{
			Extensions:       []string{".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp", ".hxx", ".ipp", ".inl"},
			IgnoreDirs:       []string{".git", ".doxyscan", "build", "node_modules", "third_party", "vendor"},
			MaxFileSizeBytes: 2000000,
			Workers:          4,
		},
		Watch: WatchConfig{
			PollIntervalMs: 1000,
			DebounceMs:     500,
		},
		Output: OutputConfig{
			Format: "human",
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from <root>/.doxyscan/config.json.
// Missing keys keep their defaults and DOXYSCAN_* environment variables
// override file values (DOXYSCAN_OUTPUT_FORMAT for output.format).
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(paths.StateDir(root))

	v.SetEnvPrefix("DOXYSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New(errors.ConfigInvalid, "cannot read "+paths.ConfigPath(root), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "cannot decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every default so that partial files and
// environment overrides merge with them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("commands.tablePath", d.Commands.TablePath)
	v.SetDefault("highlight.docLineComments", d.Highlight.DocLineComments)
	v.SetDefault("highlight.docBlockComments", d.Highlight.DocBlockComments)
	v.SetDefault("highlight.emphasis", d.Highlight.Emphasis)
	v.SetDefault("highlight.plainEmphasis", d.Highlight.PlainEmphasis)
	v.SetDefault("completion.backend", d.Completion.Backend)
	v.SetDefault("index.extensions", d.Index.Extensions)
	v.SetDefault("index.ignoreDirs", d.Index.IgnoreDirs)
	v.SetDefault("index.maxFileSizeBytes", d.Index.MaxFileSizeBytes)
	v.SetDefault("index.workers", d.Index.Workers)
	v.SetDefault("watch.pollIntervalMs", d.Watch.PollIntervalMs)
	v.SetDefault("watch.debounceMs", d.Watch.DebounceMs)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// Save writes the configuration to <root>/.doxyscan/config.json
func (c *Config) Save(root string) error {
	if _, err := paths.EnsureStateDir(root); err != nil {
		return errors.New(errors.ConfigInvalid, "cannot create state directory", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(paths.ConfigPath(root), append(data, '\n'), 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var problems []string
	if c.Version != SchemaVersion {
		problems = append(problems, fmt.Sprintf("version: unsupported config version %d", c.Version))
	}
	switch c.Completion.Backend {
	case "heuristic", "treesitter":
	default:
		problems = append(problems, fmt.Sprintf("completion.backend: unknown backend %q", c.Completion.Backend))
	}
	switch c.Output.Format {
	case "human", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("output.format: unknown format %q", c.Output.Format))
	}
	if c.Index.Workers < 1 {
		problems = append(problems, "index.workers: must be at least 1")
	}
	if c.Index.MaxFileSizeBytes < 0 {
		problems = append(problems, "index.maxFileSizeBytes: must not be negative")
	}
	if c.Watch.PollIntervalMs < 1 {
		problems = append(problems, "watch.pollIntervalMs: must be at least 1")
	}
	if c.Watch.DebounceMs < 0 {
		problems = append(problems, "watch.debounceMs: must not be negative")
	}
	for _, ext := range c.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			problems = append(problems, fmt.Sprintf("index.extensions: %q must start with a dot", ext))
		}
	}
	if len(problems) > 0 {
		e := errors.New(errors.ConfigInvalid, "invalid configuration", nil)
		e.Details = problems
		return e
	}
	return nil
}

// HasExtension reports whether name has one of the indexed extensions.
func (c *Config) HasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range c.Index.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// IsIgnoredDir reports whether a directory name is skipped while walking.
func (c *Config) IsIgnoredDir(name string) bool {
	for _, d := range c.Index.IgnoreDirs {
		if d == name {
			return true
		}
	}
	return false
}
