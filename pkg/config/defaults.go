package config

import (
	"path/filepath"
	"time"

	"github.com/ccollicutt/logforge/internal/logging"
	"github.com/ccollicutt/logforge/pkg/analyzer"
	"github.com/ccollicutt/logforge/pkg/parser"
)

// Default values for configuration.
const (
	DefaultOutDir         = "out"
	DefaultTopN           = analyzer.DefaultTopN
	DefaultParallel       = 1
	DefaultWebhookTimeout = 10 * time.Second
)

// EnvPrefix is the prefix of environment variables that override config keys,
// e.g. LOGFORGE_TOP_N.
const EnvPrefix = "LOGFORGE"

// FileName is the config file looked up in the working directory.
const FileName = "logforge.yaml"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Format:   parser.DefaultFormat,
		TopN:     DefaultTopN,
		OutDir:   DefaultOutDir,
		Parallel: DefaultParallel,
		LogLevel: logging.DefaultLevel,
	}
}

// SearchPaths returns the config files tried, in order, when no path is given.
func SearchPaths(home string) []string {
	paths := []string{FileName}
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "logforge", "config.yaml"))
	}
	return paths
}
