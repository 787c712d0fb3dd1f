// Package analyzer compares a customized Aeon page against the current
// default template and reports the customizations a migration should
// consider: content edits, moved or removed form fields, and custom scripts.
package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/conneroisu/aeonkit/internal/dom"
	"github.com/conneroisu/aeonkit/internal/logging"
)

// TemplateSource loads default templates by file name.
type TemplateSource interface {
	LoadTemplate(name string) (string, error)
}

// Analyzer detects customizations.
type Analyzer struct {
	templates TemplateSource
	logger    logging.Logger
	now       func() time.Time
}

// New creates an analyzer. templates may be nil when only Compare is used.
func New(templates TemplateSource, logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Analyzer{
		templates: templates,
		logger:    logger.WithComponent("analyzer"),
		now:       time.Now,
	}
}

// Analyze compares oldContent against the named default template.
func (a *Analyzer) Analyze(ctx context.Context, oldContent, templateName string) (*PageAnalysis, error) {
	if a.templates == nil {
		return nil, fmt.Errorf("analyze %s: no template source configured", templateName)
	}
	newContent, err := a.templates.LoadTemplate(templateName)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", templateName, err)
	}
	return a.Compare(ctx, oldContent, newContent, templateName)
}

// Compare analyzes oldContent against newContent directly. ref is recorded
// as the analysis' original page.
func (a *Analyzer) Compare(ctx context.Context, oldContent, newContent, ref string) (*PageAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	perf := logging.StartOperation(a.logger, "analyze")

	oldDoc, err := dom.Parse(oldContent)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, fmt.Errorf("parse old page: %w", err)
	}
	newDoc, err := dom.Parse(newContent)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, fmt.Errorf("parse template %s: %w", ref, err)
	}

	oldFields, newFields := ExtractFields(oldDoc), ExtractFields(newDoc)
	sectionHeadings := make(map[*html.Node]bool)
	for _, name := range oldFields.Names() {
		if f, _ := oldFields.Get(name); f.Heading != nil {
			sectionHeadings[f.Heading] = true
		}
	}

	analysis := &PageAnalysis{
		OriginalPage: ref,
		Customizations: Customizations{
			Content:    detectContentChanges(oldDoc, newDoc, sectionHeadings),
			Structure:  detectStructuralChanges(oldFields, newFields),
			JavaScript: detectScriptChanges(oldDoc, newDoc),
		},
		AeonVersion:      DetectVersion(oldContent),
		DetectedFeatures: DetectFeatures(oldDoc),
		AnalyzedAt:       a.now(),
	}

	a.logger.Info(ctx, "Page analyzed",
		"template", ref,
		"content", len(analysis.Customizations.Content),
		"structure", len(analysis.Customizations.Structure),
		"javascript", len(analysis.Customizations.JavaScript))
	perf.End(ctx)
	return analysis, nil
}

var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Aeon\s+v?(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)Version:\s*(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)<!--\s*Aeon\s+(\d+\.\d+(?:\.\d+)?)\s*-->`),
}

// DetectVersion returns the Aeon version a page was written for. The first
// matching pattern wins; pages using CustomDropDown without a marker are
// at least 5.0.
func DetectVersion(content string) string {
	for _, p := range versionPatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	if strings.Contains(content, "CustomDropDown") {
		return "5.0+"
	}
	return "Unknown"
}

var featureMarkers = []struct {
	selector, feature string
}{
	{"input[name=ScheduledDate]", "scheduled-retrieval"},
	{".duplication-section", "photoduplication"},
	{"[name=CustomDropDown]", "custom-dropdowns"},
	{".billing-section", "billing"},
}

// DetectFeatures lists the optional Aeon features a page uses.
func DetectFeatures(doc *dom.Document) []string {
	features := []string{}
	for _, m := range featureMarkers {
		if doc.First(m.selector) != nil {
			features = append(features, m.feature)
		}
	}
	return features
}
