package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/renderer"
	"github.com/conneroisu/aeonkit/internal/scanner"
)

var expandCmd = &cobra.Command{
	Use:   "expand <file.html>",
	Short: "Expand the Aeon tags of a page against mock data",
	Long: `Expand every Aeon tag of a page against a mock data profile and print the
resulting HTML. Tag errors are reported on stderr and rendered inline.

Examples:
  aeonkit expand DefaultRequest.html
  aeonkit expand DefaultRequest.html --profile admin --minify
  aeonkit expand DefaultRequest.html --set TransactionNumber=4242 -o out.html
  aeonkit expand ViewRequests.html --generate --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

var (
	expandProfile  string
	expandSet      []string
	expandOutput   string
	expandFormat   string
	expandMinify   bool
	expandGenerate bool
	expandSeed     int64
	expandStrict   bool
)

func init() {
	rootCmd.AddCommand(expandCmd)

	expandCmd.Flags().StringVarP(&expandProfile, "profile", "p", "", "Mock data profile (default from config)")
	expandCmd.Flags().StringArrayVar(&expandSet, "set", nil, "Override a mock field, name=value (repeatable)")
	expandCmd.Flags().StringVarP(&expandOutput, "output", "o", "", "Write the result to a file instead of stdout")
	expandCmd.Flags().BoolVar(&expandMinify, "minify", false, "Minify the expanded HTML")
	expandCmd.Flags().BoolVar(&expandGenerate, "generate", false, "Invent values for fields the profile does not define")
	expandCmd.Flags().Int64Var(&expandSeed, "seed", 0, "Seed for --generate (default: current time)")
	expandCmd.Flags().BoolVar(&expandStrict, "strict", false, "Exit with an error when any tag reports an error")
	addFormatFlag(expandCmd, &expandFormat, "html", formatJSON)
}

func runExpand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	ctx := commandContext(cmd)

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	manager, err := newProfileManager(cfg, newStore(cfg, logger), expandProfile)
	if err != nil {
		return err
	}
	overrides, err := parseAssignments(expandSet)
	if err != nil {
		return err
	}
	data := manager.CurrentData()
	data.Merge(overrides)

	opts := renderer.PreviewOptions{
		DocumentPath: path,
		Minify:       expandMinify || cfg.Preview.Minify,
	}
	if root, err := os.Getwd(); err == nil {
		opts.WorkspaceRoot = root
	}
	if expandGenerate {
		seed := expandSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		opts.Generator = mockdata.NewGenerator(seed)
	}

	res, err := newEngine(cfg, logger).Preview(ctx, string(content), data, opts)
	if err != nil {
		return fmt.Errorf("expanding %s: %w", path, err)
	}

	for _, tagErr := range res.Errors {
		pos := scanner.PositionAt(string(content), tagErr.Position)
		fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d:%d <#%s> %s\n", filepath.Base(path), pos.Line, pos.Column, tagErr.Tag, tagErr.Message)
	}

	out := cmd.OutOrStdout()
	if expandOutput != "" {
		f, err := os.Create(expandOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", expandOutput, err)
		}
		defer f.Close()
		out = f
	}

	if expandFormat == formatJSON {
		err = writeStructured(out, formatJSON, res)
	} else {
		_, err = fmt.Fprintln(out, res.HTML)
	}
	if err != nil {
		return err
	}

	if expandStrict && len(res.Errors) > 0 {
		return fmt.Errorf("%d tag error(s) in %s", len(res.Errors), path)
	}
	return nil
}
