// Package config handles configuration loading and management for ticketsmith.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the config and data directories.
const AppName = "ticketsmith"

// ProjectConfigName is the per-project override file searched for upwards from cwd.
const ProjectConfigName = ".ticketsmith.yaml"

// ErrNoTracker is returned when Jira credentials are incomplete.
var ErrNoTracker = errors.New("jira server_url, email and api_token must all be set")

// Config holds all configuration for ticketsmith.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Jira      JiraConfig      `mapstructure:"jira"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
}

// AnthropicConfig holds language-model settings.
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	BaseURL     string  `mapstructure:"base_url"`
	UseBedrock  bool    `mapstructure:"use_bedrock"`
	AWSRegion   string  `mapstructure:"aws_region"`
	AWSProfile  string  `mapstructure:"aws_profile"`
}

// JiraConfig holds issue-tracker settings.
type JiraConfig struct {
	ServerURL string `mapstructure:"server_url"`
	Email     string `mapstructure:"email"`
	APIToken  string `mapstructure:"api_token"`
	// LinkType is used to relate a new issue to its parent when the issue
	// type cannot carry a parent field.
	LinkType string `mapstructure:"link_type"`
	// MapExtendedFields also sends priority, labels and components on create.
	MapExtendedFields bool `mapstructure:"map_extended_fields"`
	SearchLimit       int  `mapstructure:"search_limit"`
	// DefaultProject and DefaultIssueType prefill the review form.
	DefaultProject   string `mapstructure:"default_project"`
	DefaultIssueType string `mapstructure:"default_issue_type"`
}

// CacheConfig holds tracker metadata cache settings.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Path    string        `mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// TrackerConfigured reports whether all Jira credentials are present.
func (c *Config) TrackerConfigured() bool {
	return c.Jira.ServerURL != "" && c.Jira.Email != "" && c.Jira.APIToken != ""
}

// ValidateTracker returns ErrNoTracker unless Jira credentials are complete.
func (c *Config) ValidateTracker() error {
	if !c.TrackerConfigured() {
		return ErrNoTracker
	}
	return nil
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, JIRA_*, TICKETSMITH_*)
// 2. Project config (.ticketsmith.yaml in current directory or parent)
// 3. User config (~/.config/ticketsmith/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Jira.APIToken = expandEnv(cfg.Jira.APIToken)
	cfg.Jira.ServerURL = strings.TrimRight(cfg.Jira.ServerURL, "/")
	return cfg, nil
}

// bindEnv maps the conventional variable names plus TICKETSMITH_SECTION_KEY.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("TICKETSMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("jira.server_url", "JIRA_SERVER_URL")
	_ = v.BindEnv("jira.email", "JIRA_EMAIL")
	_ = v.BindEnv("jira.api_token", "JIRA_API_TOKEN")
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	for key, value := range Flatten(cfg) {
		v.Set(key, value)
	}

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Flatten returns every setting keyed by its dot-notation name.
func Flatten(cfg *Config) map[string]any {
	return map[string]any{
		"anthropic.api_key":        cfg.Anthropic.APIKey,
		"anthropic.model":          cfg.Anthropic.Model,
		"anthropic.max_tokens":     cfg.Anthropic.MaxTokens,
		"anthropic.temperature":    cfg.Anthropic.Temperature,
		"anthropic.base_url":       cfg.Anthropic.BaseURL,
		"anthropic.use_bedrock":    cfg.Anthropic.UseBedrock,
		"anthropic.aws_region":     cfg.Anthropic.AWSRegion,
		"anthropic.aws_profile":    cfg.Anthropic.AWSProfile,
		"jira.server_url":          cfg.Jira.ServerURL,
		"jira.email":               cfg.Jira.Email,
		"jira.api_token":           cfg.Jira.APIToken,
		"jira.link_type":           cfg.Jira.LinkType,
		"jira.map_extended_fields": cfg.Jira.MapExtendedFields,
		"jira.search_limit":        cfg.Jira.SearchLimit,
		"jira.default_project":     cfg.Jira.DefaultProject,
		"jira.default_issue_type":  cfg.Jira.DefaultIssueType,
		"cache.enabled":            cfg.Cache.Enabled,
		"cache.ttl":                cfg.Cache.TTL.String(),
		"cache.path":               cfg.Cache.Path,
		"log.level":                cfg.Log.Level,
		"log.file":                 cfg.Log.File,
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DataDir returns the XDG data directory for ticketsmith.
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".local", "share", AppName)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, AppName)
}

// CachePath returns the cache database path, honoring cache.path.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(DataDir(), "cache.db")
}

// LogPath returns the log file path, honoring log.file.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(DataDir(), "logs", AppName+".log")
}

func setDefaults(v *viper.Viper) {
	d := Default()
	for key, value := range Flatten(d) {
		v.SetDefault(key, value)
	}
}

func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, AppName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", AppName)
	}
	return filepath.Join(home, ".config", AppName)
}

// findProjectConfig searches for .ticketsmith.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Temperature: 0,
		},
		Jira: JiraConfig{
			LinkType:         "Relates",
			SearchLimit:      1000,
			DefaultIssueType: "Task",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
