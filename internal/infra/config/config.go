// Package config loads and validates the server configuration.
//
// Precedence, lowest to highest: built-in defaults, YAML file,
// BAZELMCP_* environment variables, command-line flags (applied by the
// caller after Load).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"bazel-mcp/internal/domain"
)

// WorkspaceConfig identifies the Bazel workspace the server operates on.
type WorkspaceConfig struct {
	// Root is the workspace root directory. Required.
	Root string `yaml:"root"`
	// Markers are the filenames whose presence marks a valid workspace.
	Markers []string `yaml:"markers"`
}

// BazelConfig controls how the bazel executable is located and invoked.
type BazelConfig struct {
	// Executable overrides the bazel binary path. Empty = resolve.
	Executable string `yaml:"executable"`
	// PreferBazelisk resolves "bazelisk" from PATH before falling back
	// to the bare "bazel" name.
	PreferBazelisk bool `yaml:"prefer_bazelisk"`
	// Kinds are the rule kinds discovered into the target inventory.
	Kinds []string `yaml:"kinds"`
	// UniversePattern is the target pattern discovery queries run under.
	UniversePattern string `yaml:"universe_pattern"`
	// DefaultFlags are applied to build/test/run when the caller passes
	// no flags of its own.
	DefaultFlags []string `yaml:"default_flags"`
	// CommandTimeout bounds a single bazel invocation, as a duration
	// string ("10m"). Empty = no bound; builds and tests can
	// legitimately run for a long time.
	CommandTimeout string `yaml:"command_timeout"`
	// OutputTailBytes bounds the captured tail of command output kept
	// in the terminal result.
	OutputTailBytes int `yaml:"output_tail_bytes"`
}

// LoggerConfig controls the slog logger.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	// Output is "stderr", "stdout", or a file path. Stdout carries the
	// MCP protocol, so stderr is the default.
	Output string `yaml:"output"`
}

// TracerConfig controls OpenTelemetry tracing.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// Config is the top-level application configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Bazel     BazelConfig     `yaml:"bazel"`
	Logger    LoggerConfig    `yaml:"logger"`
	Tracer    TracerConfig    `yaml:"tracer"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	kinds := make([]string, len(domain.DefaultKinds))
	for i, k := range domain.DefaultKinds {
		kinds[i] = string(k)
	}
	return &Config{
		Workspace: WorkspaceConfig{
			Markers: []string{"WORKSPACE", "WORKSPACE.bazel", "MODULE.bazel"},
		},
		Bazel: BazelConfig{
			Kinds:           kinds,
			UniversePattern: "//...",
			DefaultFlags:    []string{"--color=no", "--curses=no"},
			OutputTailBytes: 64 * 1024,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Exporter: "noop",
		},
	}
}

// Load reads the YAML file at path (if it exists) over the defaults and
// applies environment overrides. A missing file is not an error; the
// server is fully configurable from flags and environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)
	return cfg, nil
}

// ApplyEnvOverrides applies BAZELMCP_* environment variables over cfg.
// BAZEL_PATH and BAZELISK are also honored for compatibility with plain
// bazel tooling setups.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BAZELMCP_WORKSPACE_ROOT"); v != "" {
		cfg.Workspace.Root = v
	}
	if v := os.Getenv("BAZELMCP_BAZEL_EXECUTABLE"); v != "" {
		cfg.Bazel.Executable = v
	}
	if v := os.Getenv("BAZEL_PATH"); v != "" && cfg.Bazel.Executable == "" {
		cfg.Bazel.Executable = v
	}
	if v := os.Getenv("BAZELISK"); v == "true" || v == "1" {
		cfg.Bazel.PreferBazelisk = true
	}
	if v := os.Getenv("BAZELMCP_COMMAND_TIMEOUT"); v != "" {
		cfg.Bazel.CommandTimeout = v
	}
	if v := os.Getenv("BAZELMCP_OUTPUT_TAIL_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Bazel.OutputTailBytes = n
		}
	}
	if v := os.Getenv("BAZELMCP_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("BAZELMCP_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("BAZELMCP_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("BAZELMCP_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("BAZELMCP_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// Validate checks cross-field constraints. The workspace root itself is
// validated against marker files at startup, not here.
func Validate(cfg *Config) error {
	if cfg.Workspace.Root == "" {
		return fmt.Errorf("workspace.root is required (set --repo, BAZELMCP_WORKSPACE_ROOT, or the config file)")
	}
	if len(cfg.Workspace.Markers) == 0 {
		return fmt.Errorf("workspace.markers must not be empty")
	}
	if len(cfg.Bazel.Kinds) == 0 {
		return fmt.Errorf("bazel.kinds must not be empty")
	}
	if cfg.Bazel.UniversePattern == "" {
		return fmt.Errorf("bazel.universe_pattern must not be empty")
	}
	if cfg.Bazel.CommandTimeout != "" {
		if d, err := time.ParseDuration(cfg.Bazel.CommandTimeout); err != nil || d < 0 {
			return fmt.Errorf("bazel.command_timeout: invalid duration %q", cfg.Bazel.CommandTimeout)
		}
	}
	switch cfg.Logger.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logger.format must be text or json, got %q", cfg.Logger.Format)
	}
	return nil
}

// CommandTimeoutDuration returns the parsed command timeout, or zero
// when no bound is configured.
func (c *BazelConfig) CommandTimeoutDuration() time.Duration {
	if c.CommandTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.CommandTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// TargetKinds returns the configured kinds as domain values.
func (c *Config) TargetKinds() []domain.Kind {
	kinds := make([]domain.Kind, len(c.Bazel.Kinds))
	for i, k := range c.Bazel.Kinds {
		kinds[i] = domain.Kind(k)
	}
	return kinds
}
