// Package renderer expands Aeon tags in HTML documents against mock data.
//
// Expansion runs in passes. Each pass finds every `<#NAME attrs>` occurrence,
// classifies its HTML context on the pass content, runs the tag's handler and
// substitutes the serialized output, rightmost occurrence first so earlier
// offsets stay valid. Passes repeat while anything changed, up to
// MaxPasses, which lets INCLUDE output contribute new tags.
package renderer

import (
	"context"
	"fmt"
	"html"
	"os"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/scanner"
)

// MaxPasses bounds the number of scan passes of one expansion.
const MaxPasses = 10

// DefaultSearchPaths is the include search order when none is configured.
var DefaultSearchPaths = []string{".", "includes"}

// HandlerFunc expands one tag occurrence. A handler may return both output
// and an error: the error is recorded on the context and the output is still
// substituted, which is how missing-attribute diagnostics render inline.
type HandlerFunc func(ctx context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error)

// Options configures an Engine.
type Options struct {
	// SearchPaths is the ordered list of include directories.
	SearchPaths []string
	// ReadFile loads include files. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
	Logger   logging.Logger
}

// Engine is the tag expansion engine. It holds no per-expansion state and
// is safe for concurrent use with independent processing contexts.
type Engine struct {
	handlers    map[string]HandlerFunc
	searchPaths []string
	readFile    func(path string) ([]byte, error)
	logger      logging.Logger
	strict      *bluemonday.Policy
}

// New creates an engine with the built-in handlers registered.
func New(opts Options) *Engine {
	e := &Engine{
		handlers:    make(map[string]HandlerFunc),
		searchPaths: opts.SearchPaths,
		readFile:    opts.ReadFile,
		logger:      opts.Logger,
		strict:      bluemonday.StrictPolicy(),
	}
	if len(e.searchPaths) == 0 {
		e.searchPaths = DefaultSearchPaths
	}
	if e.readFile == nil {
		e.readFile = os.ReadFile
	}
	if e.logger == nil {
		e.logger = logging.NewNopLogger()
	}
	e.logger = e.logger.WithComponent("renderer")

	e.registerBuiltins()
	return e
}

// Register installs or replaces the handler for a tag name.
func (e *Engine) Register(name string, handler HandlerFunc) {
	e.handlers[strings.ToUpper(name)] = handler
}

// Handles reports whether a handler is registered for name.
func (e *Engine) Handles(name string) bool {
	_, ok := e.handlers[strings.ToUpper(name)]
	return ok
}

// HandlerNames returns the registered tag names, sorted.
func (e *Engine) HandlerNames() []string {
	names := make([]string, 0, len(e.handlers))
	for n := range e.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type replacement struct {
	start, end int
	text       string
}

// Expand replaces every tag in content. Tag-level failures are recorded in
// pctx.Errors and never returned; the only error Expand returns is the
// context's, when ctx is cancelled between passes.
func (e *Engine) Expand(ctx context.Context, content string, pctx *ProcessingContext) (string, error) {
	processed := content

	for pass := 1; pass <= MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		occurrences := scanner.FindTags(processed)
		if len(occurrences) == 0 {
			break
		}

		replacements := make([]replacement, 0, len(occurrences))
		for i := len(occurrences) - 1; i >= 0; i-- {
			occ := occurrences[i]
			text := e.expandOccurrence(ctx, processed, occ, pctx)
			replacements = append(replacements, replacement{start: occ.Start, end: occ.End, text: text})
		}

		e.logger.Debug(ctx, "Expansion pass completed",
			"pass", pass,
			"tags", len(occurrences),
			"document", pctx.DocumentPath)

		// Replacements are in descending offset order.
		for _, r := range replacements {
			processed = processed[:r.start] + r.text + processed[r.end:]
		}
	}

	return processed, nil
}

func (e *Engine) expandOccurrence(ctx context.Context, content string, occ scanner.Occurrence, pctx *ProcessingContext) string {
	tagCtx := scanner.Classify(content, occ.Start)

	handler, known := e.handlers[occ.Name]
	if !known {
		if tagCtx == scanner.ContextNormal {
			return fmt.Sprintf("<!-- Unknown tag: %s -->", occ.Name)
		}
		return ""
	}

	pctx.recordTag(occ, content, tagCtx)

	raw, err := e.invoke(ctx, handler, occ, pctx)
	if err != nil {
		pctx.addError(occ.Name, occ.Start, err)
		e.logger.Warn(ctx, err, "Tag handler reported an error",
			"tag", occ.Name,
			"position", occ.Start,
			"document", pctx.DocumentPath)
		if raw == "" {
			return ""
		}
	}

	return e.serialize(occ.Name, raw, tagCtx)
}

func (e *Engine) invoke(ctx context.Context, handler HandlerFunc, occ scanner.Occurrence, pctx *ProcessingContext) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, occ.Attributes(), pctx)
}

// serialize adapts raw handler output to the context it is substituted into.
func (e *Engine) serialize(tag, raw string, tagCtx scanner.Context) string {
	switch tagCtx {
	case scanner.ContextTextarea:
		if raw == "" {
			return ""
		}
		return html.EscapeString(e.plainText(raw))

	case scanner.ContextAttribute:
		switch tag {
		case "CHECKED":
			if raw == "" {
				return ""
			}
			return ` checked="checked"`
		case "SELECTED":
			if raw == "" {
				return ""
			}
			return ` selected="selected"`
		}
		if raw == "" {
			return ""
		}
		return html.EscapeString(e.plainText(raw))

	default:
		return fmt.Sprintf(`<span class="aeon-tag" data-tag="%s">%s</span>`, tag, raw)
	}
}

// plainText strips all markup from s and returns unescaped text. Handler
// output is itself escaped HTML, so markup carried inside a mock value only
// surfaces after one unescape; the second round removes it.
func (e *Engine) plainText(s string) string {
	for i := 0; i < 2; i++ {
		s = html.UnescapeString(e.strict.Sanitize(s))
	}
	return strings.TrimSpace(s)
}
