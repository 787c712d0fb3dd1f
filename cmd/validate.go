package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/diagnostics"
	"github.com/conneroisu/aeonkit/internal/validation"
)

var (
	validateOutput string
	validateStrict bool
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate [file-or-dir...]",
	Short: "Check pages for tag, include and form problems",
	Long: `Validate Aeon pages against the tag catalog and common form rules:

- Unknown tags and missing required attributes (errors)
- Attribute values outside the allowed list (warnings)
- INCLUDE files that cannot be found on the search paths (warnings)
- Forms without the AeonForm field or not posting to aeon.dll
- Duplicate element ids

Directories are searched recursively for .html files.

Examples:
  aeonkit validate                        # Validate every page under .
  aeonkit validate DefaultRequest.html    # Validate one page
  aeonkit validate site --format json     # Machine-readable output
  aeonkit validate --strict               # Fail on warnings too`,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addFormatFlag(validateCmd, &validateOutput, formatText, formatJSON)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat warnings as errors")
}

// FileReport holds the diagnostics of one file.
type FileReport struct {
	File        string                   `json:"file"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
}

// ValidationSummary is the result of a validate run.
type ValidationSummary struct {
	Files    int          `json:"files"`
	Errors   int          `json:"errors"`
	Warnings int          `json:"warnings"`
	Infos    int          `json:"infos"`
	Reports  []FileReport `json:"reports"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	ctx := commandContext(cmd)

	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := collectHTMLFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No .html files found to validate")
		return nil
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	engine := newEngine(cfg, logger)

	summary := ValidationSummary{Files: len(files), Reports: []FileReport{}}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		checker := diagnostics.NewChecker(diagnostics.Options{
			Includes:      engine,
			DocumentPath:  file,
			WorkspaceRoot: root,
			Logger:        logger,
		})
		diags := checker.Check(ctx, string(content))

		counts := diagnostics.Count(diags)
		summary.Errors += counts[diagnostics.SeverityError]
		summary.Warnings += counts[diagnostics.SeverityWarning]
		summary.Infos += counts[diagnostics.SeverityInfo]
		if len(diags) > 0 {
			summary.Reports = append(summary.Reports, FileReport{File: file, Diagnostics: diags})
		}
	}

	if validateOutput == formatJSON {
		if err := writeStructured(cmd.OutOrStdout(), formatJSON, summary); err != nil {
			return err
		}
	} else {
		printValidationSummary(cmd.OutOrStdout(), summary)
	}

	if summary.Errors > 0 || (validateStrict && summary.Warnings > 0) {
		return fmt.Errorf("validation failed: %d error(s), %d warning(s)", summary.Errors, summary.Warnings)
	}
	return nil
}

func printValidationSummary(w io.Writer, summary ValidationSummary) {
	for _, report := range summary.Reports {
		for _, d := range report.Diagnostics {
			fmt.Fprintf(w, "%s:%s [%s]\n", report.File, d, d.Rule)
		}
	}
	fmt.Fprintf(w, "\n%d file(s) checked: %d error(s), %d warning(s), %d info\n",
		summary.Files, summary.Errors, summary.Warnings, summary.Infos)
}

// collectHTMLFiles expands directories into their .html files. Hidden
// directories and node_modules are skipped. The result is sorted.
func collectHTMLFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != arg && (strings.HasPrefix(name, ".") || name == "node_modules") {
					return filepath.SkipDir
				}
				return nil
			}
			if validation.ValidateFileExtension(path, validation.DocumentExtensions) == nil {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
