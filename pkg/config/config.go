/*
Package config manages TOML config for SQLServe services.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/sqlserve/internal/utils"
	"github.com/bastiangx/sqlserve/pkg/vocab"
	"github.com/charmbracelet/log"
)

const configFileName = "sqlserve.toml"

// Config holds the entire config structure
type Config struct {
	Server ServerConfig     `toml:"server"`
	Schema SchemaConfig     `toml:"schema"`
	Runner RunnerConfig     `toml:"runner"`
	Editor EditorConfig     `toml:"editor"`
	Vocab  vocab.Vocabulary `toml:"vocab"`
	CLI    CliConfig        `toml:"cli"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	DefaultLimit int  `toml:"default_limit"`
	Narrow       bool `toml:"narrow"`
}

// SchemaConfig says where table metadata comes from.
// A non-empty DSN takes precedence over Dir.
type SchemaConfig struct {
	Dir           string `toml:"dir"`
	DefaultDomain string `toml:"default_domain"`
	DSN           string `toml:"dsn"`
	CacheSize     int    `toml:"cache_size"`
	Watch         bool   `toml:"watch"`
}

// RunnerConfig limits query execution.
type RunnerConfig struct {
	MaxRows   int `toml:"max_rows"`
	TimeoutMs int `toml:"timeout_ms"`
}

// Timeout returns TimeoutMs as a duration.
func (r RunnerConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// EditorConfig holds key bindings.
type EditorConfig struct {
	ExecuteKey string `toml:"execute_key"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// GetDefaultConfigPath returns the default path for sqlserve.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		log.Errorf("Failed to resolve config location: %v", err)
		return "", err
	}
	return pr.GetConfigPath(configFileName)
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: $XDG_CONFIG_HOME/sqlserve/sqlserve.toml (%APPDATA% on windows)
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
// The vocab section is left empty so the embedded vocabulary applies.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:     200,
			DefaultLimit: 50,
			Narrow:       false,
		},
		Schema: SchemaConfig{
			Dir:           "schemas",
			DefaultDomain: "pa",
			CacheSize:     8,
			Watch:         true,
		},
		Runner: RunnerConfig{
			MaxRows:   500,
			TimeoutMs: 5000,
		},
		Editor: EditorConfig{
			ExecuteKey: "Ctrl+Enter",
		},
		CLI: CliConfig{
			DefaultLimit: 24,
		},
	}
}

// Vocabulary returns the embedded vocabulary with any [vocab] lists applied.
func (c *Config) Vocabulary() vocab.Vocabulary {
	return vocab.Default().Override(c.Vocab)
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every section that still decodes
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "schema"); ok {
		extractSchemaConfig(section, &config.Schema)
	}
	if section, ok := utils.ExtractSection(tempConfig, "runner"); ok {
		extractRunnerConfig(section, &config.Runner)
	}
	if section, ok := utils.ExtractSection(tempConfig, "editor"); ok {
		if val, ok := utils.ExtractString(section, "execute_key"); ok {
			config.Editor.ExecuteKey = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "vocab"); ok {
		extractVocab(section, &config.Vocab)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		server.DefaultLimit = val
	}
	if val, ok := utils.ExtractBool(data, "narrow"); ok {
		server.Narrow = val
	}
}

func extractSchemaConfig(data map[string]any, schema *SchemaConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		schema.Dir = val
	}
	if val, ok := utils.ExtractString(data, "default_domain"); ok {
		schema.DefaultDomain = val
	}
	if val, ok := utils.ExtractString(data, "dsn"); ok {
		schema.DSN = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		schema.CacheSize = val
	}
	if val, ok := utils.ExtractBool(data, "watch"); ok {
		schema.Watch = val
	}
}

func extractRunnerConfig(data map[string]any, runner *RunnerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_rows"); ok {
		runner.MaxRows = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		runner.TimeoutMs = val
	}
}

func extractVocab(data map[string]any, v *vocab.Vocabulary) {
	if val, ok := utils.ExtractStrings(data, "clause_keywords"); ok {
		v.ClauseKeywords = val
	}
	if val, ok := utils.ExtractStrings(data, "functions"); ok {
		v.Functions = val
	}
	if val, ok := utils.ExtractStrings(data, "keywords"); ok {
		v.Keywords = val
	}
}

// RebuildConfigFile force creates a new sqlserve.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// ResolveSchemaDir makes a relative schema dir relative to the config file.
func (c *Config) ResolveSchemaDir(configPath string) string {
	dir := c.Schema.Dir
	if dir == "" || filepath.IsAbs(dir) || configPath == "" {
		return dir
	}
	return filepath.Join(filepath.Dir(configPath), dir)
}
