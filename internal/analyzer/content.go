package analyzer

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/aeonkit/internal/dom"
)

// extracted is one candidate piece of customized content.
type extracted struct {
	id, text, path string
}

// extractor walks a document and returns the content of one category.
// Nodes in skip are ignored.
type extractor struct {
	kind    ContentType
	extract func(doc *dom.Document, skip map[*html.Node]bool) []extracted
}

var placeholderExtractors = []extractor{
	{ContentHeading, extractHeadings},
	{ContentParagraph, extractParagraphs},
	{ContentList, extractLists},
	{ContentTableCell, extractTableCells},
	{ContentBlock, extractContentBlocks},
	{ContentBlockquote, extractBlockquotes},
}

const helpSelector = ".small-notes, .help-text, .field-help, .info, .note, .instructions, .description"

// detectContentChanges compares the old page's text content against the new
// template. Page titles and labels are matched by key and compared; every
// other category has no stable key, so old content that does not appear
// verbatim in the same category of the new document is reported with the
// VerifyManually placeholder. Headings in sectionHeadings anchor form
// sections and are tracked through structural changes instead.
func detectContentChanges(oldDoc, newDoc *dom.Document, sectionHeadings map[*html.Node]bool) []ContentChange {
	var changes []ContentChange

	oldH1, newH1 := oldDoc.First("h1"), newDoc.First("h1")
	if oldH1 != nil && newH1 != nil {
		oldText, newText := dom.TrimmedText(oldH1), dom.TrimmedText(newH1)
		if oldText != newText {
			changes = append(changes, ContentChange{
				Type:        ContentText,
				Location:    "page-title",
				OldValue:    oldText,
				NewValue:    newText,
				ElementPath: "h1",
			})
		}
	}

	for _, ex := range placeholderExtractors {
		changes = append(changes, placeholders(ex.kind, ex.extract(oldDoc, sectionHeadings), ex.extract(newDoc, nil))...)
	}

	changes = append(changes, detectLabelChanges(oldDoc, newDoc)...)
	changes = append(changes, placeholders(ContentHelp, extractHelp(oldDoc, nil), extractHelp(newDoc, nil))...)

	return changes
}

func placeholders(kind ContentType, oldItems, newItems []extracted) []ContentChange {
	present := make(map[string]bool, len(newItems))
	for _, item := range newItems {
		present[item.text] = true
	}

	var changes []ContentChange
	for _, item := range oldItems {
		if present[item.text] {
			continue
		}
		changes = append(changes, ContentChange{
			Type:        kind,
			Location:    item.id,
			OldValue:    item.text,
			NewValue:    VerifyManually,
			ElementPath: item.path,
		})
	}
	return changes
}

// detectLabelChanges pairs labels by their for attribute and reports only
// those whose text differs.
func detectLabelChanges(oldDoc, newDoc *dom.Document) []ContentChange {
	newLabels := make(map[string]*html.Node)
	for _, l := range newDoc.QueryAll("label[for]") {
		key := dom.AttrOr(l, "for", "")
		if _, seen := newLabels[key]; !seen {
			newLabels[key] = l
		}
	}

	var changes []ContentChange
	for _, oldLabel := range oldDoc.QueryAll("label[for]") {
		key := dom.AttrOr(oldLabel, "for", "")
		if key == "" {
			continue
		}
		newLabel, ok := newLabels[key]
		if !ok {
			continue
		}
		oldText, newText := dom.TrimmedText(oldLabel), dom.TrimmedText(newLabel)
		if oldText == newText {
			continue
		}
		changes = append(changes, ContentChange{
			Type:        ContentLabel,
			Location:    key,
			OldValue:    oldText,
			NewValue:    newText,
			ElementPath: dom.ElementPath(oldLabel),
		})
	}
	return changes
}

func extractHeadings(doc *dom.Document, skip map[*html.Node]bool) []extracted {
	var out []extracted
	for level := 2; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		for i, h := range doc.QueryAll(tag) {
			if skip[h] {
				continue
			}
			if text := dom.TrimmedText(h); text != "" {
				out = append(out, extracted{id: fmt.Sprintf("%s-%d", tag, i), text: text, path: dom.ElementPath(h)})
			}
		}
	}
	return out
}

func extractParagraphs(doc *dom.Document, _ map[*html.Node]bool) []extracted {
	var out []extracted
	for i, p := range doc.QueryAll("p") {
		if text := dom.TrimmedText(p); len(text) > 30 {
			out = append(out, extracted{id: fmt.Sprintf("paragraph-%d", i), text: text, path: dom.ElementPath(p)})
		}
	}
	return out
}

func extractLists(doc *dom.Document, _ map[*html.Node]bool) []extracted {
	var out []extracted
	for i, list := range doc.QueryAll("ul, ol") {
		var items []string
		for _, li := range dom.QueryAll(list, "li") {
			if text := dom.TrimmedText(li); text != "" {
				items = append(items, text)
			}
		}
		if len(items) > 0 {
			out = append(out, extracted{id: fmt.Sprintf("list-%d", i), text: strings.Join(items, "\n• "), path: dom.ElementPath(list)})
		}
	}
	return out
}

func extractTableCells(doc *dom.Document, _ map[*html.Node]bool) []extracted {
	var out []extracted
	for t, table := range doc.QueryAll("table") {
		var headers []string
		for _, th := range dom.QueryAll(table, "th") {
			headers = append(headers, dom.TrimmedText(th))
		}
		for r, row := range dom.QueryAll(table, "tr") {
			for c, cell := range dom.QueryAll(row, "td") {
				text := dom.TrimmedText(cell)
				if len(text) <= 20 {
					continue
				}
				if c < len(headers) && headers[c] != "" {
					text = headers[c] + ": " + text
				}
				out = append(out, extracted{
					id:   fmt.Sprintf("table-%d-row-%d-cell-%d", t, r, c),
					text: text,
					path: dom.ElementPath(cell),
				})
			}
		}
	}
	return out
}

// extractContentBlocks returns leaf divs with substantial text. Divs that
// contain block-level children are containers and are skipped so their
// text is not counted twice.
func extractContentBlocks(doc *dom.Document, _ map[*html.Node]bool) []extracted {
	var out []extracted
	for i, div := range doc.QueryAll("div") {
		if dom.First(div, "div, p, table, ul, ol, h1, h2, h3, h4, h5, h6") != nil {
			continue
		}
		text := dom.TrimmedText(div)
		if len(text) <= 50 {
			continue
		}
		out = append(out, extracted{id: locationOf(div, fmt.Sprintf("content-div-%d", i)), text: text, path: dom.ElementPath(div)})
	}
	return out
}

func extractBlockquotes(doc *dom.Document, _ map[*html.Node]bool) []extracted {
	var out []extracted
	for i, q := range doc.QueryAll("blockquote") {
		if text := dom.TrimmedText(q); text != "" {
			out = append(out, extracted{id: fmt.Sprintf("blockquote-%d", i), text: text, path: dom.ElementPath(q)})
		}
	}
	return out
}

func extractHelp(doc *dom.Document, _ map[*html.Node]bool) []extracted {
	var out []extracted
	for i, n := range doc.QueryAll(helpSelector) {
		text := dom.TrimmedText(n)
		if len(text) <= 20 {
			continue
		}
		out = append(out, extracted{id: locationOf(n, fmt.Sprintf("help-%d", i)), text: text, path: dom.ElementPath(n)})
	}
	return out
}

// locationOf prefers the element id, then its class attribute, then
// fallback.
func locationOf(n *html.Node, fallback string) string {
	if id := dom.AttrOr(n, "id", ""); id != "" {
		return id
	}
	if class := dom.AttrOr(n, "class", ""); class != "" {
		return class
	}
	return fallback
}
