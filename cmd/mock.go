package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/mockdata"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Manage mock data profiles",
	Long: `Mock data profiles supply the field values Aeon tags expand to during
preview. Five profiles are built in (default, newUser, returningUser, admin,
testData); custom profiles are saved to the storage directory.

Examples:
  aeonkit mock list
  aeonkit mock show admin --format yaml
  aeonkit mock save reading-room --from admin --set Site=RR
  aeonkit mock export reading-room -o reading-room.json
  aeonkit mock import reading-room.json
  aeonkit mock delete reading-room`,
}

var mockListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available profiles",
	Args:    cobra.NoArgs,
	RunE:    runMockList,
}

var mockShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the fields of a profile (default: the configured one)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMockShow,
}

var mockSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a profile, with --set overrides, as a custom profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runMockSave,
}

var mockDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a custom profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runMockDelete,
}

var mockExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runMockExport,
}

var mockImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a profile exported with 'mock export'",
	Args:  cobra.ExactArgs(1),
	RunE:  runMockImport,
}

var (
	mockFormat string
	mockFrom   string
	mockSet    []string
	mockOutput string
)

func init() {
	rootCmd.AddCommand(mockCmd)
	mockCmd.AddCommand(mockListCmd, mockShowCmd, mockSaveCmd, mockDeleteCmd, mockExportCmd, mockImportCmd)

	addFormatFlag(mockListCmd, &mockFormat, formatText, formatJSON, formatYAML)
	addFormatFlag(mockShowCmd, &mockFormat, formatText, formatJSON, formatYAML)

	mockSaveCmd.Flags().StringVar(&mockFrom, "from", "", "Profile to start from (default: the configured one)")
	mockSaveCmd.Flags().StringArrayVar(&mockSet, "set", nil, "Override a field, name=value (repeatable)")

	mockExportCmd.Flags().StringVarP(&mockOutput, "output", "o", "", "Write to a file instead of stdout")
}

func mockManager(profile string) (*mockdata.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newProfileManager(cfg, newStore(cfg, newLogger()), profile)
}

type profileSummary struct {
	Name    string `json:"name" yaml:"name"`
	Builtin bool   `json:"builtin" yaml:"builtin"`
	Fields  int    `json:"fields" yaml:"fields"`
	Current bool   `json:"current" yaml:"current"`
}

func runMockList(cmd *cobra.Command, _ []string) error {
	manager, err := mockManager("")
	if err != nil {
		return err
	}

	var summaries []profileSummary
	for _, name := range manager.ProfileNames() {
		data, err := manager.ProfileData(name)
		if err != nil {
			return err
		}
		summaries = append(summaries, profileSummary{
			Name:    name,
			Builtin: mockdata.IsBuiltin(name),
			Fields:  data.Len(),
			Current: name == manager.CurrentProfile(),
		})
	}

	if mockFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), mockFormat, summaries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tFIELDS")
	for _, s := range summaries {
		kind := "custom"
		if s.Builtin {
			kind = "built-in"
		}
		marker := ""
		if s.Current {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%d\n", s.Name, marker, kind, s.Fields)
	}
	return w.Flush()
}

func runMockShow(cmd *cobra.Command, args []string) error {
	manager, err := mockManager("")
	if err != nil {
		return err
	}
	name := manager.CurrentProfile()
	if len(args) == 1 {
		name = args[0]
	}

	data, err := manager.ProfileData(name)
	if err != nil {
		return err
	}

	if mockFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), mockFormat, data)
	}
	printFields(cmd.OutOrStdout(), data)
	return nil
}

func printFields(out io.Writer, data *mockdata.FieldBag) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, key := range data.Keys() {
		fmt.Fprintf(w, "%s\t%s\n", key, data.String(key))
	}
	w.Flush()
}

func runMockSave(cmd *cobra.Command, args []string) error {
	manager, err := mockManager(mockFrom)
	if err != nil {
		return err
	}
	overrides, err := parseAssignments(mockSet)
	if err != nil {
		return err
	}
	for _, key := range overrides.Keys() {
		manager.UpdateField(key, overrides.Get(key))
	}

	if err := manager.SaveCustomProfile(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s (from %s)\n", args[0], manager.CurrentProfile())
	return nil
}

func runMockDelete(cmd *cobra.Command, args []string) error {
	manager, err := mockManager("")
	if err != nil {
		return err
	}
	if err := manager.DeleteCustomProfile(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", args[0])
	return nil
}

func runMockExport(cmd *cobra.Command, args []string) error {
	manager, err := mockManager("")
	if err != nil {
		return err
	}
	exported, err := manager.ExportProfile(args[0])
	if err != nil {
		return err
	}

	if mockOutput != "" {
		if err := os.WriteFile(mockOutput, []byte(exported+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", mockOutput, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported profile %s to %s\n", args[0], mockOutput)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), exported)
	return nil
}

func runMockImport(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	manager, err := mockManager("")
	if err != nil {
		return err
	}
	name, err := manager.ImportProfile(string(content))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported profile %s\n", name)
	return nil
}
