// Package config loads and persists the tracelink configuration from
// .tracelink/config.json, with environment variable overrides.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/viper"

	"tracelink/internal/paths"
)

// SupportedConfigVersions lists the config schema versions this build
// can read.
var SupportedConfigVersions = []int{1}

// Config is the complete tracelink configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Scope   ScopeConfig   `json:"scope" mapstructure:"scope"`
	History HistoryConfig `json:"history" mapstructure:"history"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScanConfig tunes the file scanner.
type ScanConfig struct {
	Workers          int      `json:"workers" mapstructure:"workers"`
	FileTimeoutMs    int      `json:"fileTimeoutMs" mapstructure:"fileTimeoutMs"`
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	MaxFiles         int      `json:"maxFiles" mapstructure:"maxFiles"`
	IgnoreDirs       []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
}

// ScopeConfig partitions documentation files from production files.
// A file is documentation when its extension or any of its path
// segments matches; everything else counts as production.
type ScopeConfig struct {
	DocsExtensions []string `json:"docsExtensions" mapstructure:"docsExtensions"`
	DocsDirs       []string `json:"docsDirs" mapstructure:"docsDirs"`
}

// HistoryConfig tunes run persistence.
type HistoryConfig struct {
	Enabled       bool `json:"enabled" mapstructure:"enabled"`
	RetentionDays int  `json:"retentionDays" mapstructure:"retentionDays"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			Workers:          4,
			FileTimeoutMs:    5000,
			MaxFileSizeBytes: 1000000,
			MaxFiles:         10000,
			IgnoreDirs:       []string{".git", "node_modules", "vendor", "build", "dist", "target", paths.AppDirName},
		},
		Scope: ScopeConfig{
			DocsExtensions: []string{".md", ".markdown", ".rst", ".adoc", ".txt"},
			DocsDirs:       []string{"docs", "doc"},
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// EnvOverride records one applied environment variable override.
type EnvOverride struct {
	EnvVar string `json:"envVar"`
	Path   string `json:"path"`
	Value  string `json:"value"`
}

// LoadResult carries the loaded config plus how it was resolved.
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads the configuration for a root, falling back to
// defaults when no config file exists.
func LoadConfig(root string) (*Config, error) {
	result, err := LoadConfigWithDetails(root)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads the configuration and reports where it
// came from. TRACELINK_CONFIG_PATH points at an explicit file and its
// absence is then an error; otherwise .tracelink/config.json under the
// root is tried, and defaults apply when it does not exist.
func LoadConfigWithDetails(root string) (*LoadResult, error) {
	result := &LoadResult{}

	if explicit := os.Getenv("TRACELINK_CONFIG_PATH"); explicit != "" {
		cfg, err := loadConfigFromPath(explicit)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
		result.ConfigPath = explicit
	} else {
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(filepath.Join(root, paths.AppDirName))

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
			result.Config = DefaultConfig()
			result.UsedDefaults = true
		} else {
			cfg := DefaultConfig()
			if err := v.Unmarshal(cfg); err != nil {
				return nil, err
			}
			result.Config = cfg
			result.ConfigPath = v.ConfigFileUsed()
		}
	}

	result.EnvOverrides = applyEnvOverrides(result.Config)
	return result, nil
}

// loadConfigFromPath loads a config file from an explicit path,
// merging it over the defaults.
func loadConfigFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to .tracelink/config.json under the
// root. The directory must already exist.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(paths.ConfigPath(root), data, 0644)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	supported := false
	for _, v := range SupportedConfigVersions {
		if c.Version == v {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Scan.Workers < 0 {
		return &ConfigError{Field: "scan.workers", Message: "must not be negative"}
	}
	if c.Scan.FileTimeoutMs <= 0 {
		return &ConfigError{Field: "scan.fileTimeoutMs", Message: "must be positive"}
	}
	if c.Scan.MaxFileSizeBytes <= 0 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must be positive"}
	}
	if c.History.RetentionDays < 0 {
		return &ConfigError{Field: "history.retentionDays", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// envVarMappings maps environment variables to config paths.
var envVarMappings = map[string]string{
	"TRACELINK_LOG_LEVEL":                "logging.level",
	"TRACELINK_LOG_FORMAT":               "logging.format",
	"TRACELINK_SCAN_WORKERS":             "scan.workers",
	"TRACELINK_SCAN_FILE_TIMEOUT_MS":     "scan.fileTimeoutMs",
	"TRACELINK_SCAN_MAX_FILE_SIZE_BYTES": "scan.maxFileSizeBytes",
	"TRACELINK_SCAN_MAX_FILES":           "scan.maxFiles",
	"TRACELINK_HISTORY_ENABLED":          "history.enabled",
	"TRACELINK_HISTORY_RETENTION_DAYS":   "history.retentionDays",
}

// GetSupportedEnvVars returns the recognized override variables.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings))
	for v := range envVarMappings {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// applyEnvOverrides applies environment variable overrides to the
// config and returns the ones that took effect. Values that fail to
// parse are skipped. Variables apply in sorted order so the recorded
// override list is stable.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride

	for _, envVar := range GetSupportedEnvVars() {
		raw, ok := os.LookupEnv(envVar)
		if !ok || raw == "" {
			continue
		}
		path := envVarMappings[envVar]

		var value interface{}
		switch path {
		case "scan.workers", "scan.fileTimeoutMs", "scan.maxFileSizeBytes", "scan.maxFiles", "history.retentionDays":
			n, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			value = n
		case "history.enabled":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				continue
			}
			value = b
		default:
			value = raw
		}

		if applyOverride(cfg, path, value) {
			overrides = append(overrides, EnvOverride{EnvVar: envVar, Path: path, Value: raw})
		}
	}

	return overrides
}

// applyOverride sets a single config value by dotted path. It returns
// false for unknown paths and mismatched types.
func applyOverride(cfg *Config, path string, value interface{}) bool {
	switch path {
	case "logging.level":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Logging.Level = s
	case "logging.format":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Logging.Format = s
	case "scan.workers":
		n, ok := value.(int)
		if !ok {
			return false
		}
		cfg.Scan.Workers = n
	case "scan.fileTimeoutMs":
		n, ok := value.(int)
		if !ok {
			return false
		}
		cfg.Scan.FileTimeoutMs = n
	case "scan.maxFileSizeBytes":
		n, ok := value.(int)
		if !ok {
			return false
		}
		cfg.Scan.MaxFileSizeBytes = n
	case "scan.maxFiles":
		n, ok := value.(int)
		if !ok {
			return false
		}
		cfg.Scan.MaxFiles = n
	case "history.enabled":
		b, ok := value.(bool)
		if !ok {
			return false
		}
		cfg.History.Enabled = b
	case "history.retentionDays":
		n, ok := value.(int)
		if !ok {
			return false
		}
		cfg.History.RetentionDays = n
	default:
		return false
	}
	return true
}
