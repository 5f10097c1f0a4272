// Package cmd wires the rpkgtests command line interface.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/l2x6/rpkgtests/internal/config"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "rpkgtests",
	Short:   "Generate Maven modules that run repackaged test jars",
	Long: `rpkgtests generates one Maven module per repackaged test jar, renders the
module that repackages the jars and keeps the parent pom.xml's managed
<modules> block in sync with what was generated.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/rpkgtests/config.yaml)")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("test_modules_parent_dir", defaults.TestModulesParentDir)
	viper.SetDefault("templates_uri_base", defaults.TemplatesURIBase)
	viper.SetDefault("clean", defaults.Clean)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .rpkgtests/config.yaml (current directory)
		// 2. ~/.config/rpkgtests/config.yaml (user config)
		if _, err := os.Stat(".rpkgtests/config.yaml"); err == nil {
			viper.SetConfigFile(".rpkgtests/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "rpkgtests"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .rpkgtests/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".rpkgtests/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
