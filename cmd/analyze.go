package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/analyzer"
	"github.com/conneroisu/aeonkit/internal/scanner"
	"github.com/conneroisu/aeonkit/internal/templates"
)

var (
	analyzeTemplate     string
	analyzeTemplatesDir string
	analyzeAgainst      string
	analyzeFormat       string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <page.html>",
	Short: "Detect how a customized page differs from the default template",
	Long: `Compare a customized page with its default template and list the
content, structure and JavaScript customizations found. Customization ids
are the ones 'migrate select' expects.

The template is matched by file name from the templates directory unless
--template or --against is given.

Examples:
  aeonkit analyze old/DefaultRequest.html
  aeonkit analyze old/Photoduplication.html --template PhotoduplicationRequest.html
  aeonkit analyze old/DefaultRequest.html --against new/DefaultRequest.html --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeTemplate, "template", "t", "", "Default template to compare against (default: best name match)")
	analyzeCmd.Flags().StringVar(&analyzeTemplatesDir, "templates-dir", "", "Directory of default templates (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeAgainst, "against", "", "Compare against this file instead of a default template")
	addFormatFlag(analyzeCmd, &analyzeFormat, formatText, formatJSON, formatYAML)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	ctx := commandContext(cmd)

	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var analysis *analyzer.PageAnalysis
	if analyzeAgainst != "" {
		newContent, err := os.ReadFile(analyzeAgainst)
		if err != nil {
			return fmt.Errorf("reading %s: %w", analyzeAgainst, err)
		}
		analysis, err = analyzer.New(nil, logger).Compare(ctx, string(content), string(newContent), filepath.Base(analyzeAgainst))
		if err != nil {
			return err
		}
	} else {
		loader := newTemplateLoader(cfg, analyzeTemplatesDir, logger)
		name, err := resolveTemplate(cmd, loader, filepath.Base(args[0]), analyzeTemplate)
		if err != nil {
			return err
		}
		analysis, err = analyzer.New(loader, logger).Analyze(ctx, string(content), name)
		if err != nil {
			return err
		}
	}

	if analyzeFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), analyzeFormat, analysis)
	}
	printAnalysis(cmd.OutOrStdout(), args[0], analysis)
	return nil
}

// resolveTemplate returns explicit when set, else the manifest page whose
// name best matches pageName.
func resolveTemplate(cmd *cobra.Command, loader *templates.Loader, pageName, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	manifest, err := loader.Manifest(commandContext(cmd))
	if err != nil {
		return "", fmt.Errorf("reading template manifest: %w", err)
	}
	names := make([]string, 0, len(manifest.Pages))
	for _, p := range manifest.Pages {
		names = append(names, p.FileName)
	}
	match := scanner.FindBestTemplateMatch(pageName, names)
	if match == "" {
		return "", fmt.Errorf("no default template matches %s, use --template", pageName)
	}
	return match, nil
}

func printAnalysis(out io.Writer, page string, a *analyzer.PageAnalysis) {
	features := strings.Join(a.DetectedFeatures, ", ")
	if features == "" {
		features = "none"
	}
	fmt.Fprintf(out, "%s compared with %s\n", page, a.OriginalPage)
	fmt.Fprintf(out, "Aeon version: %s\nFeatures: %s\n", a.AeonVersion, features)
	fmt.Fprintf(out, "Customizations: %d\n", a.Customizations.Count())

	if len(a.Customizations.Content) > 0 {
		fmt.Fprintf(out, "\nContent (%d):\n", len(a.Customizations.Content))
		for _, c := range a.Customizations.Content {
			fmt.Fprintf(out, "  %s [%s]\n    old: %s\n    new: %s\n", c.ID(), c.Type, truncate(c.OldValue, 70), truncate(c.NewValue, 70))
		}
	}
	if len(a.Customizations.Structure) > 0 {
		fmt.Fprintf(out, "\nStructure (%d):\n", len(a.Customizations.Structure))
		for _, c := range a.Customizations.Structure {
			fmt.Fprintf(out, "  %s [%s] %s\n", c.ID(), c.Type, c.FieldName)
		}
	}
	if len(a.Customizations.JavaScript) > 0 {
		fmt.Fprintf(out, "\nJavaScript (%d):\n", len(a.Customizations.JavaScript))
		for _, c := range a.Customizations.JavaScript {
			fmt.Fprintf(out, "  %s [%s] %s\n", c.ID(), c.Type, c.Purpose)
		}
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
