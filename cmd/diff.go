package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/diff"
)

const (
	diffUnified   = "unified"
	diffSide      = "side"
	diffStructure = "structure"
	diffHTML      = "html"
)

var (
	diffMode   string
	diffFormat string
)

var diffCmd = &cobra.Command{
	Use:   "diff <old.html> <new.html>",
	Short: "Show the differences between two pages",
	Long: `Compare two pages line by line or by form structure.

Modes:
  unified     unified line diff (default)
  side        side-by-side line diff
  structure   form field, attribute and CSS rule differences
  html        standalone HTML rendering of the line diff

Examples:
  aeonkit diff old/DefaultRequest.html new/DefaultRequest.html
  aeonkit diff old.html new.html --mode structure
  aeonkit diff old.html new.html --mode html > diff.html
  aeonkit diff old.html new.html --mode side --format json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVarP(&diffMode, "mode", "m", diffUnified, "Diff mode (unified, side, structure, html)")
	AddFlagValidation(diffCmd, "mode", func(value string) error {
		return validateFormat(value, []string{diffUnified, diffSide, diffStructure, diffHTML})
	})
	addFormatFlag(diffCmd, &diffFormat, formatText, formatJSON, formatYAML)
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldContent, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	newContent, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[1], err)
	}
	out := cmd.OutOrStdout()

	switch diffMode {
	case diffSide:
		sbs := diff.SideBySideDiff(string(oldContent), string(newContent))
		if diffFormat != formatText {
			return writeStructured(out, diffFormat, sbs)
		}
		printSideBySide(out, sbs)
		return nil

	case diffStructure:
		visual, err := diff.Compare(string(oldContent), string(newContent))
		if err != nil {
			return err
		}
		if diffFormat != formatText {
			return writeStructured(out, diffFormat, visual)
		}
		printStructure(out, visual)
		return nil

	case diffHTML:
		_, err := fmt.Fprintln(out, diff.RenderHTML(string(oldContent), string(newContent)))
		return err

	default:
		if diffFormat != formatText {
			return writeStructured(out, diffFormat, diff.Blocks(string(oldContent), string(newContent)))
		}
		unified, err := diff.Unified(string(oldContent), string(newContent))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, unified)
		return err
	}
}

func printSideBySide(out io.Writer, sbs diff.SideBySide) {
	for _, c := range sbs.Changes {
		marker := " "
		switch c.Type {
		case diff.Added:
			marker = "+"
		case diff.Removed:
			marker = "-"
		case diff.Modified:
			marker = "~"
		}
		fmt.Fprintf(out, "%4s %4s %s %s\n", lineNumber(c.LineNumbers.Old), lineNumber(c.LineNumbers.New), marker, c.Content)
	}
}

func lineNumber(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func printStructure(out io.Writer, v *diff.Visual) {
	if len(v.Structure) == 0 && len(v.CSS) == 0 {
		fmt.Fprintln(out, "No structural differences")
		return
	}
	for _, s := range v.Structure {
		fmt.Fprintf(out, "%-18s %s: %s\n", s.Type, s.Element, s.Details)
	}
	for _, c := range v.CSS {
		fmt.Fprintf(out, "css %-14s %s\n", c.Type, c.Content)
	}
}
