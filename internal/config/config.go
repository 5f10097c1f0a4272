// Package config provides configuration types and defaults for rpkgtests.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/l2x6/rpkgtests/internal/log"
	"github.com/l2x6/rpkgtests/internal/pom"
	"github.com/l2x6/rpkgtests/internal/render"
)

// Config holds all configuration options for a generation run.
type Config struct {
	// TestModulesParentDir is the directory under which the test modules
	// are generated. Its pom.xml is the parent descriptor whose managed
	// <modules> block is kept in sync.
	TestModulesParentDir string `mapstructure:"test_modules_parent_dir"`

	// TemplatesURIBase is where descriptor templates are looked up.
	// Supported schemes: "classpath:" (bundled) and "file:" (relative to
	// the working directory). Templates missing from a custom location
	// fall back to the bundled set.
	TemplatesURIBase string `mapstructure:"templates_uri_base"`

	// ArtifactIDReplacers derives generated module artifactIds from test
	// jar artifactIds. Comma or whitespace separated
	// /pattern/replacement/ rules, applied in order.
	ArtifactIDReplacers string `mapstructure:"artifact_id_replacers"`

	// DirReplacers derives generated module directory names from test
	// jar artifactIds. Same syntax as ArtifactIDReplacers.
	DirReplacers string `mapstructure:"dir_replacers"`

	// Clean removes every subdirectory of TestModulesParentDir that
	// contains a pom.xml before regenerating.
	Clean bool `mapstructure:"clean"`

	// RpkgModulePomPath is the pom.xml of the module producing the
	// repackaged artifacts. Empty disables the aggregating render.
	RpkgModulePomPath string `mapstructure:"rpkg_module_pom_path"`

	// PluginVersion is injected into generated descriptors.
	PluginVersion string `mapstructure:"plugin_version"`

	// TestJars lists test jar artifacts inline.
	TestJars []pom.Artifact `mapstructure:"test_jars"`

	// TestJarFiles lists YAML files declaring further test jar artifacts.
	TestJarFiles []string `mapstructure:"test_jar_files"`

	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig holds tracing configuration for generation runs.
type TracingConfig struct {
	// Enabled controls whether tracing is active. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.config/rpkgtests/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/rpkgtests/traces/traces.jsonl or empty string if the
// home dir is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rpkgtests", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		TestModulesParentDir: ".",
		TemplatesURIBase:     render.DefaultTemplatesURIBase,
		Clean:                true,
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for errors that should abort the run
// before any file is touched.
func Validate(cfg Config) error {
	if cfg.TestModulesParentDir == "" {
		return fmt.Errorf("test_modules_parent_dir is required")
	}
	if len(cfg.TestJars) == 0 && len(cfg.TestJarFiles) == 0 {
		return fmt.Errorf("no test jars configured: set test_jars or test_jar_files")
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# rpkgtests configuration

# Directory under which the test modules are generated. Its pom.xml is
# the parent descriptor whose managed <modules> block is kept in sync.
test_modules_parent_dir: .

# Where descriptor templates are looked up. Schemes:
#   classpath:  bundled templates (the default)
#   file:       directory relative to the working directory
# Templates missing from a custom location fall back to the bundled set.
# templates_uri_base: "file:my-templates"

# Replacer chains deriving generated names from test jar artifactIds.
# Comma or whitespace separated /pattern/replacement/ rules, applied in
# order. Go regexp syntax; $1 refers to the first capture group.
# artifact_id_replacers: "/^(.*)-tests$/run-$1-tests/"
# dir_replacers: "/^(.*)-tests$/$1/"

# Delete previously generated module directories (any subdirectory with
# its own pom.xml) before regenerating.
clean: true

# pom.xml of the module producing the repackaged artifacts.
# rpkg_module_pom_path: rpkg/pom.xml

# Version of the rpkgtests-maven-plugin written into generated descriptors.
# plugin_version: 0.4.0

# Test jar artifacts to generate modules for.
# test_jars:
#   - group_id: org.example
#     artifact_id: example-tests
#     version: 1.2.3

# YAML files declaring further test jars (testJars: list of
# groupId/artifactId/version entries).
# test_jar_files:
#   - test-jars.yaml

# Tracing of generation runs
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp
#   file_path: ~/.config/rpkgtests/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
