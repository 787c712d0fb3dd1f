package renderer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/conneroisu/aeonkit/internal/scanner"
)

// ErrIncludeNotFound is returned by ResolveInclude when no search path
// yields a readable file.
var ErrIncludeNotFound = errors.New("include file not found")

func (e *Engine) handleInclude(ctx context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	if includeType := attrs.Get("type"); includeType != "" {
		return specialInclude(includeType, pctx), nil
	}

	filename := attrs.Get("filename")
	if filename == "" {
		return "<!-- INCLUDE: Missing filename or type attribute -->",
			errors.New("Missing filename or type attribute")
	}

	if pctx.IncludedFiles[filename] {
		return fmt.Sprintf("<!-- Circular include detected: %s -->", html.EscapeString(filename)), nil
	}
	pctx.IncludedFiles[filename] = true

	_, content, err := e.ResolveInclude(filename, pctx)
	if err != nil {
		return fmt.Sprintf("<!-- Include file not found: %s -->", html.EscapeString(filename)),
			fmt.Errorf("File not found: %s", filename)
	}

	// Nested includes share pctx, so the cycle guard spans the whole tree.
	expanded, err := e.Expand(ctx, content, pctx)
	if err != nil {
		return "", err
	}

	escaped := html.EscapeString(filename)
	return fmt.Sprintf(`<div class="include-content" data-include="%s" title="Included from: %s">%s</div>`,
		escaped, escaped, expanded), nil
}

// IncludeCandidates lists the paths tried for filename, in order. A search
// path of "." means the current document's directory; absolute search paths
// are used as is; other relative paths are joined to the workspace root, or
// to the document's directory when there is no workspace root.
func (e *Engine) IncludeCandidates(filename string, pctx *ProcessingContext) []string {
	docDir := "."
	switch {
	case pctx.DocumentPath != "":
		docDir = filepath.Dir(pctx.DocumentPath)
	case pctx.WorkspaceRoot != "":
		docDir = pctx.WorkspaceRoot
	}

	searchPaths := e.searchPaths
	if len(pctx.SearchPaths) > 0 {
		searchPaths = pctx.SearchPaths
	}

	candidates := make([]string, 0, len(searchPaths))
	for _, sp := range searchPaths {
		var base string
		switch {
		case sp == ".":
			base = docDir
		case filepath.IsAbs(sp):
			base = sp
		case pctx.WorkspaceRoot != "":
			base = filepath.Join(pctx.WorkspaceRoot, sp)
		default:
			base = filepath.Join(docDir, sp)
		}
		candidates = append(candidates, filepath.Join(base, filename))
	}
	return candidates
}

// ResolveInclude returns the first readable candidate for filename and its
// content.
func (e *Engine) ResolveInclude(filename string, pctx *ProcessingContext) (string, string, error) {
	for _, candidate := range e.IncludeCandidates(filename, pctx) {
		data, err := e.readFile(candidate)
		if err != nil {
			continue
		}
		return candidate, string(data), nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrIncludeNotFound, filename)
}

func specialInclude(includeType string, pctx *ProcessingContext) string {
	switch strings.ToLower(includeType) {
	case "detaileddoctypeinformation":
		docType := pctx.MockData.String("DocumentType")
		if docType == "" {
			docType = "Default"
		}
		docType = html.EscapeString(docType)
		return fmt.Sprintf(`<div class="doc-type-info"><h4>Document Type Information</h4><p>Type: %s</p><p>Special handling instructions for %s documents.</p></div>`,
			docType, docType)

	case "photoduplication":
		if pctx.MockData.String("RequestType") != "PhotoduplicationRequest" {
			return ""
		}
		return `<div class="photodup-info"><h4>Photoduplication Options</h4><p>Format, resolution, and delivery options...</p></div>`

	case "requestbuttons":
		return `<div class="request-buttons"><button type="submit" class="btn btn-primary">Submit Request</button><button type="button" class="btn btn-secondary">Cancel</button></div>`

	default:
		return fmt.Sprintf("<!-- Unknown include type: %s -->", html.EscapeString(includeType))
	}
}
