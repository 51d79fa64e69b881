package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/ticketsmith/internal/config"
	"github.com/ShayCichocki/ticketsmith/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify ticketsmith configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/ticketsmith/config.yaml
Project-specific overrides can be placed in .ticketsmith.yaml
Secrets may reference environment variables as ${VAR}.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		default:
			return setConfigKey(args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("# user config:    %s\n", config.GetUserConfigPath())
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Printf("# project config: %s\n", p)
	}

	values := config.Flatten(cfg)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, _ := getConfigValue(cfg, k)
		if cred, ok := config.LookupCredential(k); ok {
			_, source := cred.Resolve(cfg)
			v += " (" + string(source) + ")"
		}
		fmt.Printf("%s: %s\n", k, v)
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
// Secrets are masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	key = strings.ToLower(key)
	value, ok := config.Flatten(cfg)[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	if _, ok := config.LookupCredential(key); ok {
		return config.MaskSecret(value.(string)), nil
	}
	return fmt.Sprint(value), nil
}

// setConfigKey sets a value in the user config file only, so environment
// and project overrides are not copied into it.
func setConfigKey(key, value string) error {
	cfg := config.Default()
	if path := config.GetUserConfigPath(); fileExists(path) {
		loaded, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	shown := value
	if _, ok := config.LookupCredential(key); ok {
		shown = config.MaskSecret(value)
	}
	fmt.Printf("Set %s = %s\n", key, shown)
	return nil
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if err := config.AnthropicKey.Validate(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.max_tokens":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid value for anthropic.max_tokens: %q", value)
		}
		cfg.Anthropic.MaxTokens = n
	case "anthropic.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid value for anthropic.temperature: %q (want 0 to 1)", value)
		}
		cfg.Anthropic.Temperature = f
	case "anthropic.base_url":
		cfg.Anthropic.BaseURL = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for anthropic.use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "jira.server_url":
		cfg.Jira.ServerURL = strings.TrimRight(value, "/")
	case "jira.email":
		cfg.Jira.Email = value
	case "jira.api_token":
		if err := config.JiraToken.Validate(value); err != nil {
			return err
		}
		cfg.Jira.APIToken = value
	case "jira.link_type":
		cfg.Jira.LinkType = value
	case "jira.map_extended_fields":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for jira.map_extended_fields: %w", err)
		}
		cfg.Jira.MapExtendedFields = b
	case "jira.search_limit":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid value for jira.search_limit: %q", value)
		}
		cfg.Jira.SearchLimit = n
	case "jira.default_project":
		cfg.Jira.DefaultProject = strings.ToUpper(value)
	case "jira.default_issue_type":
		cfg.Jira.DefaultIssueType = value
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for cache.enabled: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for cache.ttl: %w", err)
		}
		cfg.Cache.TTL = d
	case "cache.path":
		cfg.Cache.Path = value
	case "log.level":
		if _, err := logging.ParseLevel(value); err != nil {
			return err
		}
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
