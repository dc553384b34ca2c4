// Package config provides configuration loading and validation for logforge.
package config

import "time"

// Config holds the analyze settings that can come from a config file or
// LOGFORGE_* environment variables. Command-line flags override it.
type Config struct {
	// Format is the log syntax name (combined, json).
	Format string `yaml:"format" mapstructure:"format"`

	// TopN is how many endpoints the report ranks.
	TopN int `yaml:"top_n" mapstructure:"top_n"`

	// OutDir is where report.json and the CSV files are written.
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`

	// Summary is the terminal summary mode. Empty picks text on a terminal
	// and quiet otherwise.
	Summary string `yaml:"summary,omitempty" mapstructure:"summary"`

	// Parallel is how many input files are folded at once.
	Parallel int `yaml:"parallel" mapstructure:"parallel"`

	// LogLevel is the diagnostic log level written to stderr.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" mapstructure:"webhooks"`

	// source is the file the config was read from, if any.
	source string
}

// Source returns the path the configuration was loaded from, or "" when only
// defaults and environment variables were used.
func (c *Config) Source() string {
	return c.source
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnInvalid fires only when some lines failed to parse (default).
	WebhookTriggerOnInvalid WebhookTrigger = "on_invalid"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint that receives the report document.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" mapstructure:"name"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" mapstructure:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty" mapstructure:"token"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_invalid" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty" mapstructure:"trigger"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}
