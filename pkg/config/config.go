/*
Package config manages TOML config for typeahead services.
*/
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config holds the entire config structure
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Engine  EngineConfig  `toml:"engine"`
	Metrics MetricsConfig `toml:"metrics"`
	Seed    SeedConfig    `toml:"seed"`
	CLI     CliConfig     `toml:"cli"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig has IPC server limits.
type ServerConfig struct {
	MaxLimit    int     `toml:"max_limit"`
	MaxTokens   int     `toml:"max_tokens"`
	MaxTokenLen int     `toml:"max_token_len"`
	RateLimit   float64 `toml:"rate_limit"`
	RateBurst   int     `toml:"rate_burst"`
}

// EngineConfig holds query defaults.
type EngineConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// SeedConfig locates the scripts replayed at startup.
type SeedConfig struct {
	Dir     string `toml:"dir"`
	Pattern string `toml:"pattern"`
}

// CliConfig holds line-protocol mode options.
type CliConfig struct {
	Stats bool `toml:"stats"`
}

// LogConfig sets the log level used when debug mode is off.
type LogConfig struct {
	Level string `toml:"level"`
}

// LogLevel resolves Log.Level, falling back to warn for unknown names.
func (c *Config) LogLevel() log.Level {
	return logger.ParseLevel(c.Log.Level)
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/typeahead
// 2. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return executableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "typeahead")
	if err := utils.EnsureDir(primaryPath); err == nil {
		return primaryPath, nil
	}
	return executableDir()
}

func executableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return filepath.Dir(execPath), nil
}

// GetDefaultConfigPath returns the default path for config.toml, preferring
// the first writable location the path resolver finds
func GetDefaultConfigPath() (string, error) {
	if pr, err := utils.NewPathResolver(); err == nil {
		return pr.GetConfigPath("config.toml")
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/typeahead/config.toml
// 3. Builtin defaults
// Environment overrides are applied on top in every case.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	config, path := loadWithPriority(customConfigPath)
	ApplyEnv(config)
	return config, path, nil
}

func loadWithPriority(customConfigPath string) (*Config, string) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), ""
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:    100,
			MaxTokens:   16,
			MaxTokenLen: 64,
			RateLimit:   0,
			RateBurst:   64,
		},
		Engine: EngineConfig{
			DefaultLimit: 10,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Seed: SeedConfig{
			Dir:     "",
			Pattern: "seed_*.txt",
		},
		CLI: CliConfig{
			Stats: false,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
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

// tryPartialParse keeps every well-typed value it can find and defaults the rest
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
	if section, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.Engine.DefaultLimit = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "metrics"); ok {
		if val, ok := utils.ExtractBool(section, "enabled"); ok {
			config.Metrics.Enabled = val
		}
		if val, ok := utils.ExtractString(section, "addr"); ok {
			config.Metrics.Addr = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "seed"); ok {
		if val, ok := utils.ExtractString(section, "dir"); ok {
			config.Seed.Dir = val
		}
		if val, ok := utils.ExtractString(section, "pattern"); ok {
			config.Seed.Pattern = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractBool(section, "stats"); ok {
			config.CLI.Stats = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "log"); ok {
		if val, ok := utils.ExtractString(section, "level"); ok {
			config.Log.Level = val
		}
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_tokens"); ok {
		server.MaxTokens = val
	}
	if val, ok := utils.ExtractInt64(data, "max_token_len"); ok {
		server.MaxTokenLen = val
	}
	if val, ok := utils.ExtractFloat(data, "rate_limit"); ok {
		server.RateLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "rate_burst"); ok {
		server.RateBurst = val
	}
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// LoadDotEnv loads a .env file into the process environment when present.
// Variables already set are left alone.
func LoadDotEnv(path string) {
	if !utils.FileExists(path) {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warnf("Failed to load env file %s: %v", path, err)
		return
	}
	log.Debugf("Loaded env file: %s", path)
}

// ApplyEnv overrides config values from TYPEAHEAD_* environment variables.
// Unparseable values are logged and ignored.
func ApplyEnv(c *Config) {
	envInt("TYPEAHEAD_MAX_LIMIT", &c.Server.MaxLimit)
	envInt("TYPEAHEAD_MAX_TOKENS", &c.Server.MaxTokens)
	envInt("TYPEAHEAD_MAX_TOKEN_LEN", &c.Server.MaxTokenLen)
	envFloat("TYPEAHEAD_RATE_LIMIT", &c.Server.RateLimit)
	envInt("TYPEAHEAD_RATE_BURST", &c.Server.RateBurst)
	envInt("TYPEAHEAD_DEFAULT_LIMIT", &c.Engine.DefaultLimit)
	envBool("TYPEAHEAD_METRICS_ENABLED", &c.Metrics.Enabled)
	envString("TYPEAHEAD_METRICS_ADDR", &c.Metrics.Addr)
	envString("TYPEAHEAD_SEED_DIR", &c.Seed.Dir)
	envString("TYPEAHEAD_LOG_LEVEL", &c.Log.Level)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("Ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

func envFloat(key string, dst *float64) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warnf("Ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = f
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("Ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = b
}
