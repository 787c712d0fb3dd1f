package diff

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conneroisu/aeonkit/internal/analyzer"
	"github.com/conneroisu/aeonkit/internal/dom"
)

// StructuralType classifies a form field difference.
type StructuralType string

const (
	ElementAdded     StructuralType = "element-added"
	ElementRemoved   StructuralType = "element-removed"
	ElementMoved     StructuralType = "element-moved"
	AttributeChanged StructuralType = "attribute-changed"
)

// StructuralDiff is one form field difference with a readable description.
type StructuralDiff struct {
	Type    StructuralType `json:"type"`
	Element string         `json:"element"`
	Details string         `json:"details"`
}

// StyleChange is one CSS rule that was added, removed or modified.
type StyleChange struct {
	Type    ChangeType `json:"type"`
	Content string     `json:"content"`
}

// Visual bundles the three views of a page comparison.
type Visual struct {
	HTML      []Block          `json:"html"`
	CSS       []StyleChange    `json:"css"`
	Structure []StructuralDiff `json:"structure"`
}

// Compare parses both pages and returns their line, style and field
// differences.
func Compare(oldContent, newContent string) (*Visual, error) {
	oldDoc, err := dom.Parse(oldContent)
	if err != nil {
		return nil, fmt.Errorf("parse old page: %w", err)
	}
	newDoc, err := dom.Parse(newContent)
	if err != nil {
		return nil, fmt.Errorf("parse new page: %w", err)
	}
	return &Visual{
		HTML:      Blocks(oldContent, newContent),
		CSS:       CompareStyles(oldDoc, newDoc),
		Structure: CompareStructure(oldDoc, newDoc),
	}, nil
}

// CompareStructure reports removed fields, then added fields, then for each
// kept field a move and its attribute differences. A field's position is
// its index among same-tag siblings.
func CompareStructure(oldDoc, newDoc *dom.Document) []StructuralDiff {
	oldFields, newFields := analyzer.ExtractFields(oldDoc), analyzer.ExtractFields(newDoc)
	var diffs []StructuralDiff

	for _, name := range oldFields.Names() {
		if _, ok := newFields.Get(name); !ok {
			f, _ := oldFields.Get(name)
			diffs = append(diffs, StructuralDiff{
				Type:    ElementRemoved,
				Element: f.Node.Data,
				Details: fmt.Sprintf("Field %q was removed", name),
			})
		}
	}

	for _, name := range newFields.Names() {
		if _, ok := oldFields.Get(name); !ok {
			f, _ := newFields.Get(name)
			diffs = append(diffs, StructuralDiff{
				Type:    ElementAdded,
				Element: f.Node.Data,
				Details: fmt.Sprintf("Field %q was added", name),
			})
		}
	}

	for _, name := range oldFields.Names() {
		nf, ok := newFields.Get(name)
		if !ok {
			continue
		}
		of, _ := oldFields.Get(name)
		oldIndex, newIndex := dom.SiblingIndex(of.Node), dom.SiblingIndex(nf.Node)
		if oldIndex != newIndex {
			diffs = append(diffs, StructuralDiff{
				Type:    ElementMoved,
				Element: of.Node.Data,
				Details: fmt.Sprintf("Field %q moved from position %d to %d", name, oldIndex, newIndex),
			})
		}
		diffs = append(diffs, compareAttributes(name, of, nf)...)
	}

	return diffs
}

func compareAttributes(name string, of, nf analyzer.Field) []StructuralDiff {
	var diffs []StructuralDiff
	newAttrs := dom.Attributes(nf.Node)
	oldAttrs := dom.Attributes(of.Node)

	for _, a := range of.Node.Attr {
		value, ok := newAttrs[a.Key]
		switch {
		case !ok:
			diffs = append(diffs, StructuralDiff{
				Type:    AttributeChanged,
				Element: of.Node.Data,
				Details: fmt.Sprintf("Field %q: attribute %q was removed", name, a.Key),
			})
		case value != oldAttrs[a.Key]:
			diffs = append(diffs, StructuralDiff{
				Type:    AttributeChanged,
				Element: of.Node.Data,
				Details: fmt.Sprintf("Field %q: attribute %q changed from %q to %q", name, a.Key, oldAttrs[a.Key], value),
			})
		}
	}

	for _, a := range nf.Node.Attr {
		if _, ok := oldAttrs[a.Key]; !ok {
			diffs = append(diffs, StructuralDiff{
				Type:    AttributeChanged,
				Element: nf.Node.Data,
				Details: fmt.Sprintf("Field %q: attribute %q was added with value %q", name, a.Key, newAttrs[a.Key]),
			})
		}
	}
	return diffs
}

// styleRules keeps selectors in first-seen order; a repeated selector
// keeps its place and takes the later body.
type styleRules struct {
	order []string
	body  map[string]string
}

func (r *styleRules) set(selector, body string) {
	if _, ok := r.body[selector]; !ok {
		r.order = append(r.order, selector)
	}
	r.body[selector] = body
}

var cssRule = regexp.MustCompile(`([^{]+)\{([^}]+)\}`)

// extractStyles collects the rules of every <style> element and the style
// attribute of every element, keyed as tag[style]:nth-of-type(n) where n
// counts styled elements in document order.
func extractStyles(doc *dom.Document) *styleRules {
	rules := &styleRules{body: make(map[string]string)}
	for _, tag := range doc.QueryAll("style") {
		for _, m := range cssRule.FindAllStringSubmatch(dom.Text(tag), -1) {
			rules.set(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
		}
	}
	for i, el := range doc.QueryAll("[style]") {
		if style := dom.AttrOr(el, "style", ""); style != "" {
			rules.set(fmt.Sprintf("%s[style]:nth-of-type(%d)", el.Data, i+1), style)
		}
	}
	return rules
}

// CompareStyles reports removed and modified rules in old order, then
// added rules in new order. Modified rules carry the new body.
func CompareStyles(oldDoc, newDoc *dom.Document) []StyleChange {
	oldRules, newRules := extractStyles(oldDoc), extractStyles(newDoc)
	var changes []StyleChange

	for _, selector := range oldRules.order {
		body := oldRules.body[selector]
		newBody, ok := newRules.body[selector]
		switch {
		case !ok:
			changes = append(changes, StyleChange{Type: Removed, Content: fmt.Sprintf("%s { %s }", selector, body)})
		case newBody != body:
			changes = append(changes, StyleChange{Type: Modified, Content: fmt.Sprintf("%s { %s }", selector, newBody)})
		}
	}

	for _, selector := range newRules.order {
		if _, ok := oldRules.body[selector]; !ok {
			changes = append(changes, StyleChange{Type: Added, Content: fmt.Sprintf("%s { %s }", selector, newRules.body[selector])})
		}
	}
	return changes
}
