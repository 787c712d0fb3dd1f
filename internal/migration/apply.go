package migration

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/aeonkit/internal/analyzer"
	"github.com/conneroisu/aeonkit/internal/dom"
)

// applyContent restores customized text. Only labels, help text and the
// page title can be located in the template; other categories need a
// manual edit.
func applyContent(doc *dom.Document, c analyzer.ContentChange, override string) {
	value := c.OldValue
	if override != "" {
		value = override
	}

	switch c.Type {
	case analyzer.ContentLabel:
		for _, label := range doc.QueryAll("label") {
			if dom.AttrOr(label, "for", "") != c.Location {
				continue
			}
			setLabelText(label, value)
			return
		}
	case analyzer.ContentHelp:
		if el := doc.ElementByID(c.Location); el != nil {
			dom.SetText(el, value)
		}
	case analyzer.ContentText:
		if c.Location == "page-title" {
			if h1 := doc.First("h1"); h1 != nil {
				dom.SetText(h1, value)
			}
		}
	}
}

// setLabelText keeps an error-marker span inside the label intact and
// only rewrites its leading text.
func setLabelText(label *html.Node, value string) {
	for _, span := range dom.QueryAll(label, "span") {
		if !strings.Contains(dom.AttrOr(span, "class", ""), "ERROR") {
			continue
		}
		if first := span.FirstChild; first != nil && first.Type == html.TextNode {
			first.Data = value
		}
		return
	}
	dom.SetText(label, value)
}

// applyStructure replays a move or removal on the template. Added fields
// have no source markup to copy and are left alone.
func applyStructure(doc *dom.Document, c analyzer.StructuralChange) {
	field := fieldByName(doc, c.FieldID)
	if field == nil {
		return
	}

	switch c.Type {
	case analyzer.FieldMoved:
		if c.OldPosition == nil || c.NewPosition == nil {
			return
		}
		moveToPosition(doc, fieldContainer(field), *c.OldPosition)
	case analyzer.FieldRemoved:
		if container := fieldContainer(field); container != nil {
			dom.Detach(container)
		}
	}
}

func fieldByName(doc *dom.Document, name string) *html.Node {
	for _, n := range doc.QueryAll("[name]") {
		if dom.AttrOr(n, "name", "") == name {
			return n
		}
	}
	return nil
}

// fieldContainer returns the nearest .form-group, .field-container, tr or
// div ancestor of a field, else its parent.
func fieldContainer(field *html.Node) *html.Node {
	for p := dom.Parent(field); p != nil; p = dom.Parent(p) {
		if dom.HasClass(p, "form-group") || dom.HasClass(p, "field-container") || p.Data == "tr" || p.Data == "div" {
			return p
		}
	}
	return dom.Parent(field)
}

// moveToPosition moves container into the last section whose heading
// contains the old section name, before the form group at the old index
// or at the end of the section.
func moveToPosition(doc *dom.Document, container *html.Node, pos analyzer.Position) {
	if container == nil {
		return
	}

	var target *html.Node
	for _, section := range doc.QueryAll("section, .form-section, fieldset") {
		header := dom.First(section, "h2, h3, legend")
		if header != nil && strings.Contains(dom.Text(header), pos.Section) {
			target = section
		}
	}
	if target == nil || isAncestor(container, target) {
		return
	}

	groups := dom.QueryAll(target, ".form-group, .field-container")
	if pos.Index < len(groups) {
		anchor := groups[pos.Index]
		if anchor == container || isAncestor(container, anchor) {
			return
		}
		dom.Detach(container)
		anchor.Parent.InsertBefore(container, anchor)
		return
	}
	dom.Detach(container)
	target.AppendChild(container)
}

func isAncestor(a, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// applyScript re-adds a custom script. The suggested rewrite is preferred
// over the original source.
func applyScript(doc *dom.Document, c analyzer.ScriptChange, override string) {
	content := c.SuggestedRewrite
	if content == "" {
		content = c.Content
	}
	if override != "" {
		content = override
	}

	switch c.Type {
	case analyzer.ScriptInline:
		purpose := c.Purpose
		if purpose == "" {
			purpose = "Custom functionality"
		}
		script := dom.NewElement("script")
		script.AppendChild(dom.NewText(fmt.Sprintf("\n// Migrated custom script: %s\n%s\n", purpose, content)))
		if c.Location == "head" {
			appendTo(doc.Head(), script)
		} else {
			appendTo(doc.Body(), script)
		}
	case analyzer.ScriptExternal:
		appendTo(doc.Head(), dom.NewElement("script", "src", c.Content))
	case analyzer.ScriptEventHandler:
		script := dom.NewElement("script")
		script.AppendChild(dom.NewText(fmt.Sprintf(
			"\n// Migrated event handler\ndocument.addEventListener('DOMContentLoaded', function() {\n    %s\n});", content)))
		appendTo(doc.Body(), script)
	}
}

func appendTo(parent, child *html.Node) {
	if parent != nil {
		parent.AppendChild(child)
	}
}
