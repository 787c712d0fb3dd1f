package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/catalog"
)

var (
	tagsFormat   string
	tagsCategory string
)

var tagsCmd = &cobra.Command{
	Use:   "tags [name]",
	Short: "Browse the Aeon tag catalog",
	Long: `List the Aeon tags aeonkit knows about, grouped by category, or show
the attributes and examples of one tag.

Examples:
  aeonkit tags                      # All tags by category
  aeonkit tags --category table     # Only table tags
  aeonkit tags PARAM                # Details of <#PARAM>
  aeonkit tags --format json        # Machine-readable catalog`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)

	addFormatFlag(tagsCmd, &tagsFormat, formatText, formatJSON, formatYAML)
	tagsCmd.Flags().StringVarP(&tagsCategory, "category", "c", "", "Only list tags in this category")
}

func runTags(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		def, ok := catalog.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown tag %q", args[0])
		}
		if tagsFormat != formatText {
			return writeStructured(out, tagsFormat, def)
		}
		printTagDetail(out, def)
		return nil
	}

	var defs []*catalog.TagDefinition
	if tagsCategory != "" {
		defs = catalog.ByCategory(catalog.Category(strings.ToLower(tagsCategory)))
		if len(defs) == 0 {
			return fmt.Errorf("no tags in category %q", tagsCategory)
		}
	} else {
		defs = catalog.All()
	}

	if tagsFormat != formatText {
		return writeStructured(out, tagsFormat, defs)
	}
	printTagTable(out, defs)
	return nil
}

func printTagTable(out io.Writer, defs []*catalog.TagDefinition) {
	byCategory := make(map[catalog.Category][]*catalog.TagDefinition)
	for _, def := range defs {
		byCategory[def.Category] = append(byCategory[def.Category], def)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, category := range catalog.Categories() {
		group := byCategory[category]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\n", category.Title())
		for _, def := range group {
			fmt.Fprintf(w, "  %s\t%s\n", def.Name, def.Description)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	fmt.Fprintf(out, "%d tag(s)\n", len(defs))
}

func printTagDetail(out io.Writer, def *catalog.TagDefinition) {
	fmt.Fprintf(out, "<#%s>  (%s)\n\n%s\n", def.Name, def.Category.Title(), def.Description)

	if len(def.Attributes) > 0 {
		fmt.Fprintln(out, "\nAttributes:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, attr := range def.Attributes {
			required := ""
			if attr.Required {
				required = "required"
			}
			detail := attr.Description
			if len(attr.AllowedValues) > 0 {
				detail += fmt.Sprintf(" [%s]", strings.Join(attr.AllowedValues, "|"))
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", attr.Name, attr.Type, required, detail)
		}
		w.Flush()
	}

	if len(def.Examples) > 0 {
		fmt.Fprintln(out, "\nExamples:")
		for _, ex := range def.Examples {
			fmt.Fprintf(out, "  %s\n", ex)
		}
	}
}
