// Package cmd implements the vaultindex command line interface.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/driftware/vaultindex/internal/config"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vaultindex",
	Short: "Registry of deployed vaults and strategies",
	Long: `vaultindex tracks the protocol's deployed vault and strategy
addresses, indexed by underlying asset and protocol release. The index is
append-only: once recorded, an association never changes.

Releases, factories, and deployed bytecode come from a YAML deployment
manifest (see --manifest).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/vaultindex/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"enable debug logging")
	rootCmd.PersistentFlags().String("db", "",
		"registry database path")
	rootCmd.PersistentFlags().String("manifest", "",
		"deployment manifest path")

	// Bind flags to viper
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("manifest_path", rootCmd.PersistentFlags().Lookup("manifest"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("db_path", defaults.DBPath)
	viper.SetDefault("manifest_path", defaults.ManifestPath)
	viper.SetDefault("watch_debounce", defaults.WatchDebounce)
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	// VAULTINDEX_DEBUG, VAULTINDEX_DB_PATH, VAULTINDEX_TRACING_ENABLED, ...
	viper.SetEnvPrefix("VAULTINDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .vaultindex/config.yaml (current directory)
		// 2. ~/.config/vaultindex/config.yaml (user config)
		if _, err := os.Stat(filepath.Join(".vaultindex", "config.yaml")); err == nil {
			viper.SetConfigFile(filepath.Join(".vaultindex", "config.yaml"))
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "vaultindex"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - continue with defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			cobra.CheckErr(err)
		}
	}

	cobra.CheckErr(viper.Unmarshal(&cfg))
}
