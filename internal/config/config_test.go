package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("expected default model, got %q", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", cfg.Anthropic.Temperature)
	}
	if cfg.Anthropic.MaxTokens != 4096 {
		t.Errorf("expected max tokens 4096, got %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Jira.LinkType != "Relates" {
		t.Errorf("expected link type Relates, got %q", cfg.Jira.LinkType)
	}
	if cfg.Jira.SearchLimit != 1000 {
		t.Errorf("expected search limit 1000, got %d", cfg.Jira.SearchLimit)
	}
	if cfg.Jira.DefaultIssueType != "Task" || cfg.Jira.DefaultProject != "" {
		t.Errorf("expected default issue type Task and no project, got %q/%q", cfg.Jira.DefaultIssueType, cfg.Jira.DefaultProject)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != time.Hour {
		t.Errorf("expected cache enabled with 1h ttl, got %+v", cfg.Cache)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info, got %q", cfg.Log.Level)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: sk-ant-test-key
  model: claude-haiku-4-5-20251001
  temperature: 0.2
jira:
  server_url: https://example.atlassian.net/
  email: dev@example.com
  api_token: ${TEST_JIRA_TOKEN}
  map_extended_fields: true
cache:
  ttl: 10m
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("TEST_JIRA_TOKEN", "expanded-token")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-test-key" {
		t.Errorf("api key = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Anthropic.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.Temperature != 0.2 {
		t.Errorf("temperature = %v", cfg.Anthropic.Temperature)
	}
	if cfg.Anthropic.MaxTokens != 4096 {
		t.Errorf("max tokens should keep default, got %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Jira.ServerURL != "https://example.atlassian.net" {
		t.Errorf("server url should lose trailing slash, got %q", cfg.Jira.ServerURL)
	}
	if cfg.Jira.APIToken != "expanded-token" {
		t.Errorf("api token = %q, want expanded", cfg.Jira.APIToken)
	}
	if !cfg.Jira.MapExtendedFields {
		t.Error("map_extended_fields should be true")
	}
	if cfg.Jira.LinkType != "Relates" {
		t.Errorf("link type should keep default, got %q", cfg.Jira.LinkType)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should stay enabled by default")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if !cfg.TrackerConfigured() {
		t.Error("tracker should be configured")
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_Precedence(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("JIRA_SERVER_URL", "")
	t.Setenv("JIRA_EMAIL", "env@example.com")
	t.Setenv("JIRA_API_TOKEN", "")

	userDir := filepath.Join(xdg, AppName)
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	user := "jira:\n  server_url: https://user.example\n  email: user@example.com\nlog:\n  level: warn\n"
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	nested := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, ProjectConfigName), []byte("log:\n  level: error\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Jira.ServerURL != "https://user.example" {
		t.Errorf("server url = %q, want user config value", cfg.Jira.ServerURL)
	}
	if cfg.Jira.Email != "env@example.com" {
		t.Errorf("email = %q, want env override", cfg.Jira.Email)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("log level = %q, want project override", cfg.Log.Level)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg := Default()
	cfg.Jira.ServerURL = "https://saved.example"
	cfg.Cache.TTL = 5 * time.Minute

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Jira.ServerURL != "https://saved.example" {
		t.Errorf("server url = %q", loaded.Jira.ServerURL)
	}
	if loaded.Cache.TTL != 5*time.Minute {
		t.Errorf("cache ttl = %v", loaded.Cache.TTL)
	}
}

func TestValidateTracker(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateTracker(); !errors.Is(err, ErrNoTracker) {
		t.Errorf("ValidateTracker() = %v, want ErrNoTracker", err)
	}
	cfg.Jira = JiraConfig{ServerURL: "https://x", Email: "e", APIToken: "t"}
	if err := cfg.ValidateTracker(); err != nil {
		t.Errorf("ValidateTracker() = %v, want nil", err)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg := Default()
	if got := cfg.CachePath(); got != filepath.Join("/data", AppName, "cache.db") {
		t.Errorf("CachePath() = %q", got)
	}
	if got := cfg.LogPath(); got != filepath.Join("/data", AppName, "logs", "ticketsmith.log") {
		t.Errorf("LogPath() = %q", got)
	}

	cfg.Cache.Path = "/tmp/c.db"
	cfg.Log.File = "/tmp/t.log"
	if cfg.CachePath() != "/tmp/c.db" || cfg.LogPath() != "/tmp/t.log" {
		t.Error("explicit paths should win")
	}
}
