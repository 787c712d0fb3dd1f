package renderer

import (
	"context"
	"time"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"

	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/scanner"
)

// PreviewOptions configures a single preview render.
type PreviewOptions struct {
	DocumentPath  string
	WorkspaceRoot string
	// SearchPaths overrides the engine's include search paths.
	SearchPaths []string
	// Minify compacts the final HTML.
	Minify bool
	// Generator, when set, invents values for referenced fields that the
	// mock data does not define.
	Generator *mockdata.Generator
}

// Result is a rendered preview.
type Result struct {
	HTML         string                `json:"html"`
	Errors       []aeonerrors.TagError `json:"errors"`
	Tags         []TagInfo             `json:"tags"`
	TagMap       map[string]TagInfo    `json:"tagMap"`
	FilledFields []string              `json:"filledFields,omitempty"`
	Duration     time.Duration         `json:"duration"`
	Timestamp    time.Time             `json:"timestamp"`
}

var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &minhtml.Minifier{
		KeepComments:     true,
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}

// Preview expands content against a private clone of data, then rewrites
// local resource references to placeholders. Tag errors are reported in the
// result, not as an error.
func (e *Engine) Preview(ctx context.Context, content string, data *mockdata.FieldBag, opts PreviewOptions) (*Result, error) {
	perf := logging.StartOperation(e.logger, "preview")
	start := time.Now()

	pctx := NewProcessingContext(data.Clone())
	pctx.DocumentPath = opts.DocumentPath
	pctx.WorkspaceRoot = opts.WorkspaceRoot
	pctx.SearchPaths = opts.SearchPaths

	var filled []string
	if opts.Generator != nil {
		filled = opts.Generator.FillMissing(pctx.MockData, ReferencedFields(content))
	}

	expanded, err := e.Expand(ctx, content, pctx)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	out := RewriteResources(expanded)
	if opts.Minify {
		minified, err := minifier.String("text/html", out)
		if err != nil {
			e.logger.Warn(ctx, err, "Minification failed, serving unminified HTML")
		} else {
			out = minified
		}
	}

	perf.End(ctx)
	return &Result{
		HTML:         out,
		Errors:       pctx.Errors.GetErrors(),
		Tags:         pctx.Tags(),
		TagMap:       pctx.TagMap,
		FilledFields: filled,
		Duration:     time.Since(start),
		Timestamp:    start,
	}, nil
}

// ReferencedFields returns the mock field names that the top-level tags of
// content read: PARAM and CHECKED/SELECTED names, USER fields and the
// Activity-prefixed ACTIVITY fields. Names are unique, in source order.
func ReferencedFields(content string) []string {
	seen := make(map[string]bool)
	var fields []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}

	for _, occ := range scanner.FindTags(content) {
		attrs := occ.Attributes()
		switch occ.Name {
		case "PARAM", "CHECKED", "SELECTED":
			add(attrs.Get("name"))
		case "USER":
			add(attrs.Get("field"))
		case "ACTIVITY":
			if f := attrs.Get("field"); f != "" {
				add("Activity" + f)
			}
		}
	}
	return fields
}
