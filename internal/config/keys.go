package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// Credential is a secret that may come from the environment or the config
// file. The environment wins.
type Credential struct {
	Key    string
	EnvVar string
	// Prefix is the literal every valid value starts with, if any.
	Prefix string
}

var (
	AnthropicKey = Credential{Key: "anthropic.api_key", EnvVar: "ANTHROPIC_API_KEY", Prefix: "sk-ant-"}
	JiraToken    = Credential{Key: "jira.api_token", EnvVar: "JIRA_API_TOKEN"}
)

// Credentials lists every secret config key.
func Credentials() []Credential {
	return []Credential{AnthropicKey, JiraToken}
}

// LookupCredential returns the credential stored under a config key.
func LookupCredential(key string) (Credential, bool) {
	for _, c := range Credentials() {
		if strings.EqualFold(c.Key, key) {
			return c, true
		}
	}
	return Credential{}, false
}

func (c Credential) configured(cfg *Config) string {
	if cfg == nil {
		return ""
	}
	switch c.Key {
	case AnthropicKey.Key:
		return cfg.Anthropic.APIKey
	case JiraToken.Key:
		return cfg.Jira.APIToken
	}
	return ""
}

// Resolve returns the credential's value and where it came from. A config
// value that still holds an unset ${VAR} reference counts as missing.
func (c Credential) Resolve(cfg *Config) (string, KeySource) {
	if v := os.Getenv(c.EnvVar); v != "" {
		return v, KeySourceEnv
	}
	v := os.ExpandEnv(c.configured(cfg))
	if v == "" || strings.HasPrefix(v, "${") {
		return "", KeySourceNone
	}
	return v, KeySourceConfig
}

// Validate checks a value before it is written to the config file.
// ${VAR} references are stored as-is and checked when they are expanded.
func (c Credential) Validate(value string) error {
	if value == "" {
		return fmt.Errorf("%s: empty value", c.Key)
	}
	if isEnvReference(value) {
		return nil
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return fmt.Errorf("%s: value contains whitespace", c.Key)
	}
	if c.Prefix != "" && !strings.HasPrefix(value, c.Prefix) {
		return fmt.Errorf("%s: expected a value starting with %q", c.Key, c.Prefix)
	}
	return nil
}

func isEnvReference(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") && len(s) > 3
}

// GetAPIKey returns the Anthropic API key.
func GetAPIKey(cfg *Config) (string, error) {
	if key, _ := AnthropicKey.Resolve(cfg); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// MaskSecret hides all but the tail of a secret. Unexpanded ${VAR}
// references name a variable, not a secret, and are shown whole.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case isEnvReference(s):
		return s
	case len(s) <= 12:
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// KeySource represents where a credential was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)
