// Package migration rebuilds a page on the current default template by
// re-applying the customizations a user chose to keep.
package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/aeonkit/internal/analyzer"
	"github.com/conneroisu/aeonkit/internal/dom"
	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/storage"
)

// AnalysisStore loads stored page analyses.
type AnalysisStore interface {
	LoadPageAnalysis(ctx context.Context, projectID, pageFile string) (*analyzer.PageAnalysis, error)
}

// Engine applies customization selections to default templates.
type Engine struct {
	analyses  AnalysisStore
	templates analyzer.TemplateSource
	logger    logging.Logger
}

// NewEngine creates an engine.
func NewEngine(analyses AnalysisStore, templates analyzer.TemplateSource, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		analyses:  analyses,
		templates: templates,
		logger:    logger.WithComponent("migration"),
	}
}

// MigratePage loads the page's analysis and target template and applies
// the page's selections. Branding from the project is applied last.
func (e *Engine) MigratePage(ctx context.Context, project *storage.Project, page storage.Page) (string, error) {
	if e.templates == nil {
		return "", fmt.Errorf("migrate %s: template loader not initialized", page.SourceFile)
	}
	perf := logging.StartOperation(e.logger, "migrate_page")

	analysis, err := e.analyses.LoadPageAnalysis(ctx, project.ID, page.SourceFile)
	if err != nil {
		perf.EndWithError(ctx, err)
		return "", fmt.Errorf("migrate %s: %w", page.SourceFile, err)
	}

	template, err := e.templates.LoadTemplate(page.TargetFile)
	if err != nil {
		perf.EndWithError(ctx, err)
		return "", fmt.Errorf("migrate %s: %w", page.SourceFile, err)
	}

	migrated, err := e.Apply(ctx, template, analysis, page.Customizations)
	if err != nil {
		perf.EndWithError(ctx, err)
		return "", fmt.Errorf("migrate %s: %w", page.SourceFile, err)
	}

	if project.BrandingGuide != nil {
		if migrated, err = ApplyBranding(migrated, *project.BrandingGuide); err != nil {
			perf.EndWithError(ctx, err)
			return "", fmt.Errorf("migrate %s: %w", page.SourceFile, err)
		}
	}

	perf.End(ctx)
	return migrated, nil
}

// Apply applies the keep and modify selections to template in order.
// Selections that name no recorded customization are logged and skipped.
func (e *Engine) Apply(ctx context.Context, template string, analysis *analyzer.PageAnalysis, selections []storage.Selection) (string, error) {
	doc, err := dom.Parse(template)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	for _, sel := range selections {
		if sel.Type != storage.SelectionKeep && sel.Type != storage.SelectionModify {
			continue
		}
		if !applySelection(doc, analysis, sel) {
			e.logger.Debug(ctx, "Customization not applied", "id", sel.CustomizationID)
		}
	}

	return doc.Render()
}

// applySelection dispatches on the id prefix. It reports whether the
// selection matched a recorded customization.
func applySelection(doc *dom.Document, analysis *analyzer.PageAnalysis, sel storage.Selection) bool {
	kind, id, _ := strings.Cut(sel.CustomizationID, "-")
	override := ""
	if sel.Type == storage.SelectionModify {
		override = sel.ModifiedValue
	}

	switch kind {
	case "content":
		for _, c := range analysis.Customizations.Content {
			if c.Location == id {
				applyContent(doc, c, override)
				return true
			}
		}
	case "structure":
		for _, c := range analysis.Customizations.Structure {
			if c.FieldID == id {
				applyStructure(doc, c)
				return true
			}
		}
	case "javascript":
		for _, c := range analysis.Customizations.JavaScript {
			if c.Location == id {
				applyScript(doc, c, override)
				return true
			}
		}
	}
	return false
}
