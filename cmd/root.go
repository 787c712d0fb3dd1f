// Package cmd provides the aeonkit command-line interface.
//
// Configuration sources, highest priority first:
//
//  1. Command-line flags (--config, --port, ...)
//  2. AEONKIT_CONFIG_FILE: path of the configuration file
//  3. AEONKIT_<SECTION>_<OPTION> environment variables, e.g. AEONKIT_SERVER_PORT,
//     including values loaded from a .env file in the working directory
//  4. .aeonkit.yml in the working directory
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/aeonkit/internal/config"
	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
	"github.com/conneroisu/aeonkit/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aeonkit",
	Short: "Authoring tools for Aeon tag templates",
	Long: `aeonkit previews, validates and migrates web pages written with Aeon
<#TAG attr="value"> tags.

Quick Start:
  aeonkit serve                          Live preview of every page in the directory
  aeonkit expand DefaultRequest.html     Expand one page against mock data
  aeonkit validate .                     Check pages for tag and form problems
  aeonkit tags                           Browse the tag catalog
  aeonkit migrate project create ...     Start a migration to new default templates`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Failures are also logged with their error type and code.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		aeonerrors.NewErrorHandler(newLogger()).Handle(context.Background(), err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .aeonkit.yml, can also use AEONKIT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig points Viper at the configuration file and enables
// AEONKIT_ environment overrides. A missing file is not an error.
func initConfig() {
	// .env values become environment variables; variables already set win.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("AEONKIT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".aeonkit")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger from --log-level and --log-format.
func newLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(viper.GetString("log-level")),
		Format: viper.GetString("log-format"),
		Output: os.Stderr,
	})
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
