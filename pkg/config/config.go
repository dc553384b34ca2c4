package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/logforge/internal/logging"
	"github.com/ccollicutt/logforge/pkg/output"
	"github.com/ccollicutt/logforge/pkg/parser"
)

// Load reads and validates the configuration. See Read for how the file is
// found.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Read reads the configuration without validating it, so callers can apply
// their own overrides before calling Validate. An explicit path must exist.
// With an empty path the SearchPaths are tried and a missing file is fine.
// LOGFORGE_* environment variables override file values.
func Read(_ context.Context, path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("format", defaults.Format)
	v.SetDefault("top_n", defaults.TopN)
	v.SetDefault("out_dir", defaults.OutDir)
	v.SetDefault("summary", defaults.Summary)
	v.SetDefault("parallel", defaults.Parallel)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetConfigType("yaml")

	source := path
	if source == "" {
		home, _ := os.UserHomeDir()
		for _, candidate := range SearchPaths(home) {
			if _, err := os.Stat(candidate); err == nil {
				source = candidate
				break
			}
		}
	} else if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if source != "" {
		v.SetConfigFile(source)
		if err := v.ReadInConfig(); err != nil {
			var configFileNotFound viper.ConfigFileNotFoundError
			if errors.As(err, &configFileNotFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.source = source

	return cfg, nil
}

// Validate checks a configuration for errors and fills webhook defaults.
func Validate(cfg *Config) error {
	if !slices.Contains(parser.Formats(), cfg.Format) {
		return fmt.Errorf("format: unknown log format %q (use %s)", cfg.Format, strings.Join(parser.Formats(), " or "))
	}

	if cfg.TopN < 1 {
		return fmt.Errorf("top_n: must be >= 1, got %d", cfg.TopN)
	}

	if cfg.OutDir == "" {
		return errors.New("out_dir: must not be empty")
	}

	if cfg.Summary != "" && !slices.Contains(output.SummaryModes(), cfg.Summary) {
		return fmt.Errorf("summary: invalid mode %q (use %s)", cfg.Summary, strings.Join(output.SummaryModes(), ", "))
	}

	if cfg.Parallel < 1 {
		return fmt.Errorf("parallel: must be >= 1, got %d", cfg.Parallel)
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := ValidateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// ValidateWebhook checks one webhook, expands its token and fills defaults.
func ValidateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnInvalid, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_invalid, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnInvalid
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// WriteStarter writes a commented starter config using the given log format.
// An existing file is never overwritten.
func WriteStarter(path, format string) error {
	cfg := DefaultConfig()
	cfg.Format = format
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	header := "# logforge configuration\n" +
		"# Every key can be overridden with a LOGFORGE_<KEY> environment variable\n" +
		"# (e.g. LOGFORGE_TOP_N=50) or the matching analyze flag.\n"

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if _, err := file.WriteString(header + string(data)); err != nil {
		file.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
