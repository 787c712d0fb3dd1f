// Package diagnostics checks Aeon pages for tag and form problems and
// reports them with line and column positions.
package diagnostics

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/conneroisu/aeonkit/internal/catalog"
	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/renderer"
	"github.com/conneroisu/aeonkit/internal/scanner"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rule names.
const (
	RuleUnknownTag       = "unknown-tag"
	RuleMissingAttribute = "missing-attribute"
	RuleInvalidValue     = "invalid-value"
	RuleErrorName        = "error-name"
	RuleIncludeNotFound  = "include-not-found"
	RuleUnclosedForm     = "unclosed-form"
	RuleFormAction       = "form-action"
	RuleFormMethod       = "form-method"
	RuleMissingAeonForm  = "missing-aeonform"
	RuleDuplicateID      = "duplicate-id"
)

// Diagnostic is one finding.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`

	offset int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d %s %s", d.Line, d.Column, d.Severity, d.Message)
}

// Options configures a Checker.
type Options struct {
	// Includes resolves INCLUDE filenames. Nil skips the include check.
	Includes *renderer.Engine
	// DocumentPath and WorkspaceRoot anchor include resolution.
	DocumentPath  string
	WorkspaceRoot string
	Logger        logging.Logger
}

// Checker runs every rule over a document.
type Checker struct {
	opts   Options
	logger logging.Logger
}

// NewChecker creates a checker.
func NewChecker(opts Options) *Checker {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Checker{opts: opts, logger: logger.WithComponent("diagnostics")}
}

var (
	formOpen  = regexp.MustCompile(`(?i)<form\b[^>]*>`)
	formClose = regexp.MustCompile(`(?i)</form\s*>`)
	formAttr  = regexp.MustCompile(`(?i)\b(action|method)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	idAttr    = regexp.MustCompile(`(?i)(?:^|\s)id\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// Check returns the diagnostics for content ordered by position.
func (c *Checker) Check(ctx context.Context, content string) []Diagnostic {
	tags := scanner.FindTags(content)

	var out []Diagnostic
	out = append(out, c.checkTags(tags)...)
	if strings.Contains(strings.ToLower(content), "<form") {
		out = append(out, checkForms(content)...)
	}
	out = append(out, checkDuplicateIDs(content, tags)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].offset < out[j].offset })
	for i := range out {
		pos := scanner.PositionAt(content, out[i].offset)
		out[i].Line, out[i].Column = pos.Line, pos.Column
	}

	c.logger.Debug(ctx, "Document checked", "path", c.opts.DocumentPath, "diagnostics", len(out))
	return out
}

func (c *Checker) checkTags(tags []scanner.Occurrence) []Diagnostic {
	var out []Diagnostic
	for _, occ := range tags {
		def, ok := catalog.Lookup(occ.Name)
		if !ok {
			out = append(out, Diagnostic{
				Severity: SeverityError,
				Rule:     RuleUnknownTag,
				Message:  "Unknown Aeon tag: " + occ.Name,
				offset:   occ.Start,
			})
			continue
		}
		name := catalog.Canonical(occ.Name)
		attrs := occ.Attributes()

		for _, required := range def.RequiredAttributes() {
			if !attrs.Has(required) {
				out = append(out, Diagnostic{
					Severity: SeverityError,
					Rule:     RuleMissingAttribute,
					Message:  fmt.Sprintf("Missing required attribute '%s' for <#%s> tag", required, name),
					offset:   occ.Start,
				})
			}
		}

		for _, key := range attrs.Keys() {
			spec, ok := def.Attribute(key)
			if !ok {
				continue
			}
			if value := attrs.Get(key); !spec.Allows(value) {
				out = append(out, Diagnostic{
					Severity: SeverityWarning,
					Rule:     RuleInvalidValue,
					Message: fmt.Sprintf("Invalid value '%s' for attribute '%s' of <#%s>; expected one of: %s",
						value, spec.Name, name, strings.Join(spec.AllowedValues, ", ")),
					offset: occ.Start,
				})
			}
		}

		switch name {
		case "ERROR":
			field := attrs.GetOr("name", attrs.Get("field"))
			if field != "" && !strings.HasPrefix(field, "ERROR") {
				out = append(out, Diagnostic{
					Severity: SeverityWarning,
					Rule:     RuleErrorName,
					Message:  "Error field names should start with 'ERROR' (e.g., 'ERRORItemTitle')",
					offset:   occ.Start,
				})
			}
		case "INCLUDE":
			if d, ok := c.checkInclude(occ, attrs); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func (c *Checker) checkInclude(occ scanner.Occurrence, attrs scanner.Attributes) (Diagnostic, bool) {
	filename := attrs.Get("filename")
	if c.opts.Includes == nil || filename == "" || attrs.Has("type") {
		return Diagnostic{}, false
	}
	pctx := renderer.NewProcessingContext(nil)
	pctx.DocumentPath = c.opts.DocumentPath
	pctx.WorkspaceRoot = c.opts.WorkspaceRoot
	if _, _, err := c.opts.Includes.ResolveInclude(filename, pctx); err == nil {
		return Diagnostic{}, false
	}
	return Diagnostic{
		Severity: SeverityWarning,
		Rule:     RuleIncludeNotFound,
		Message:  "Include file not found: " + filename,
		offset:   occ.Start,
	}, true
}

func checkForms(content string) []Diagnostic {
	var out []Diagnostic
	opens := formOpen.FindAllStringIndex(content, -1)
	closes := formClose.FindAllStringIndex(content, -1)

	if len(opens) > len(closes) {
		out = append(out, Diagnostic{
			Severity: SeverityError,
			Rule:     RuleUnclosedForm,
			Message:  "Unclosed <form> tag",
			offset:   opens[len(opens)-1][0],
		})
	}

	for _, loc := range opens {
		tag := content[loc[0]:loc[1]]
		attrs := map[string]string{}
		for _, m := range formAttr.FindAllStringSubmatch(tag, -1) {
			attrs[strings.ToLower(m[1])] = m[2] + m[3]
		}
		if !strings.EqualFold(attrs["action"], "aeon.dll") {
			out = append(out, Diagnostic{
				Severity: SeverityWarning,
				Rule:     RuleFormAction,
				Message:  `Aeon forms should have action="aeon.dll"`,
				offset:   loc[0],
			})
		}
		if !strings.EqualFold(attrs["method"], "post") {
			out = append(out, Diagnostic{
				Severity: SeverityInfo,
				Rule:     RuleFormMethod,
				Message:  `Aeon forms should use method="post"`,
				offset:   loc[0],
			})
		}
	}

	if len(opens) > 0 && !strings.Contains(content, `name="AeonForm"`) {
		out = append(out, Diagnostic{
			Severity: SeverityWarning,
			Rule:     RuleMissingAeonForm,
			Message:  `Form is missing required hidden field: <input type="hidden" name="AeonForm" value="FormName">`,
			offset:   opens[0][0],
		})
	}
	return out
}

// checkDuplicateIDs reports every repeat of a static id. Ids inside Aeon
// tags or built from Aeon tags are skipped.
func checkDuplicateIDs(content string, tags []scanner.Occurrence) []Diagnostic {
	var out []Diagnostic
	seen := make(map[string]bool)
	for _, m := range idAttr.FindAllStringSubmatchIndex(content, -1) {
		if insideTag(m[0], tags) {
			continue
		}
		var id string
		switch {
		case m[2] >= 0:
			id = content[m[2]:m[3]]
		case m[4] >= 0:
			id = content[m[4]:m[5]]
		}
		if id == "" || strings.Contains(id, "<#") {
			continue
		}
		if seen[id] {
			out = append(out, Diagnostic{
				Severity: SeverityWarning,
				Rule:     RuleDuplicateID,
				Message:  fmt.Sprintf("Duplicate ID '%s' found. IDs must be unique within a document.", id),
				offset:   m[0] + strings.Index(strings.ToLower(content[m[0]:m[1]]), "id"),
			})
			continue
		}
		seen[id] = true
	}
	return out
}

func insideTag(offset int, tags []scanner.Occurrence) bool {
	for _, t := range tags {
		if offset >= t.Start && offset < t.End {
			return true
		}
	}
	return false
}

// Count tallies diagnostics by severity.
func Count(diags []Diagnostic) map[Severity]int {
	counts := make(map[Severity]int)
	for _, d := range diags {
		counts[d.Severity]++
	}
	return counts
}
