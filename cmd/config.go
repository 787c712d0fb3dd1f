package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/aeonkit/internal/config"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
	Long: `Show or validate the configuration aeonkit runs with, after merging
.aeonkit.yml, AEONKIT_* environment variables and flags.

Examples:
  aeonkit config show
  aeonkit config show --format json
  aeonkit config validate`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors and warnings",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd)

	addFormatFlag(configShowCmd, &configFormat, formatYAML, formatJSON)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if file := viper.ConfigFileUsed(); file != "" && configFormat == formatYAML {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", file)
	}
	return writeStructured(cmd.OutOrStdout(), configFormat, cfg)
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result := config.ValidateConfigWithDetails(cfg)
	out := cmd.OutOrStdout()
	if !result.HasErrors() && !result.HasWarnings() {
		fmt.Fprintln(out, "Configuration is valid")
		return nil
	}
	fmt.Fprintln(out, result.String())
	if result.HasErrors() {
		return fmt.Errorf("configuration has errors")
	}
	return nil
}
