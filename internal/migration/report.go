package migration

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/conneroisu/aeonkit/internal/dom"
	"github.com/conneroisu/aeonkit/internal/storage"
)

// Report renders a markdown summary of a project: versions, features,
// per-page status with applied customization counts by kind, and branding.
func Report(project *storage.Project, generated time.Time) string {
	features := strings.Join(project.Features, ", ")
	if features == "" {
		features = "None"
	}

	lines := []string{
		"# Migration Report: " + project.Name,
		"Generated: " + generated.Format("2006-01-02 15:04:05"),
		"",
		"## Project Summary",
		"- Source Version: " + project.SourceVersion,
		"- Target Version: " + project.TargetVersion,
		fmt.Sprintf("- Total Pages: %d", len(project.Pages)),
		"- Features: " + features,
		"",
		"## Pages Migrated",
	}

	for _, page := range project.Pages {
		lines = append(lines,
			"### "+page.SourceFile,
			fmt.Sprintf("- Status: %s", page.Status),
			fmt.Sprintf("- Customizations Applied: %d", len(page.Customizations)))

		if len(page.Customizations) > 0 {
			lines = append(lines, "- Types:")
			var kinds []string
			counts := make(map[string]int)
			for _, sel := range page.Customizations {
				kind := sel.Kind()
				if counts[kind] == 0 {
					kinds = append(kinds, kind)
				}
				counts[kind]++
			}
			for _, kind := range kinds {
				lines = append(lines, fmt.Sprintf("  - %s: %d", kind, counts[kind]))
			}
		}
		lines = append(lines, "")
	}

	if b := project.BrandingGuide; b != nil {
		lines = append(lines,
			"## Branding Applied",
			"- Primary Color: "+b.Colors.Primary,
			"- Secondary Color: "+b.Colors.Secondary,
			"- Font Family: "+b.Typography.FontFamily,
			"")
	}

	return strings.Join(lines, "\n")
}

// Validation is the outcome of ValidateMigrated.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

var includeFilename = regexp.MustCompile(`<#INCLUDE\s+FILENAME="([^"]+)">`)

// ValidateMigrated checks migrated markup for the pieces an Aeon form
// needs and for leftovers that will not work on the server.
func ValidateMigrated(content string) Validation {
	errs := []string{}

	if !strings.Contains(content, `name="AeonForm"`) {
		errs = append(errs, "Missing AeonForm hidden field")
	}
	if !strings.Contains(content, `action="aeon.dll"`) {
		errs = append(errs, "Form action not set to aeon.dll")
	}
	for _, m := range includeFilename.FindAllStringSubmatch(content, -1) {
		if strings.Contains(m[1], "../") || strings.Contains(m[1], `..\`) {
			errs = append(errs, "Potentially broken include path: "+m[1])
		}
	}
	if strings.Contains(content, "<%") || strings.Contains(content, "%>") {
		errs = append(errs, "Found unconverted ASP-style tags")
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// BrandingCSS renders the branding guide as CSS custom properties plus
// base rules that use them.
func BrandingCSS(b storage.BrandingGuide) string {
	accent := b.Colors.Accent
	if accent == "" {
		accent = b.Colors.Secondary
	}
	return fmt.Sprintf(`/* Generated from Branding Guide */
:root {
  --primary-color: %s;
  --secondary-color: %s;
  --accent-color: %s;
  --text-color: %s;
  --background-color: %s;
  --font-family: %s;
  --base-font-size: %s;
  --line-height: %s;
}

body {
  font-family: var(--font-family);
  font-size: var(--base-font-size);
  line-height: var(--line-height);
  color: var(--text-color);
  background-color: var(--background-color);
}

h1, h2, h3, h4, h5, h6 {
  color: var(--primary-color);
}

.btn-primary {
  background-color: var(--primary-color);
  border-color: var(--primary-color);
}
`, b.Colors.Primary, b.Colors.Secondary, accent, b.Colors.Text, b.Colors.Background,
		b.Typography.FontFamily, b.Typography.BaseFontSize, b.Typography.LineHeight)
}

// ApplyBranding appends the branding stylesheet to the document head.
func ApplyBranding(content string, b storage.BrandingGuide) (string, error) {
	doc, err := dom.Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	style := dom.NewElement("style", "id", "aeon-branding")
	style.AppendChild(dom.NewText("\n" + BrandingCSS(b) + "\n"))
	appendTo(doc.Head(), style)
	return doc.Render()
}
