package scanner

import "strings"

// Context is the syntactic position of a tag occurrence inside the HTML
// document. It decides how the expansion is serialized.
type Context int

const (
	ContextNormal Context = iota
	ContextAttribute
	ContextTextarea
)

// String returns the context name used in logs and the tag map.
func (c Context) String() string {
	switch c {
	case ContextAttribute:
		return "attribute"
	case ContextTextarea:
		return "textarea"
	default:
		return "normal"
	}
}

// Classify determines the context of position within content.
//
// This is a textual heuristic, not an HTML parser. A position after an open
// "<textarea" with no later "</textarea>" is Textarea. Otherwise, if the
// nearest "<" before position has not been closed by ">", the position is
// inside a tag's attribute list and is classified as Attribute whatever the
// quote parity. Positions inside comments or malformed markup may be
// misclassified; callers depend on this exact behavior.
func Classify(content string, position int) Context {
	if position > len(content) {
		position = len(content)
	}
	if position < 0 {
		position = 0
	}
	before := content[:position]

	lastOpen := strings.LastIndex(before, "<textarea")
	lastClose := strings.LastIndex(before, "</textarea>")
	if lastOpen > -1 && lastOpen > lastClose {
		return ContextTextarea
	}

	lastTag := strings.LastIndex(before, "<")
	if lastTag == -1 {
		return ContextNormal
	}

	fromTag := before[lastTag:]
	if strings.Contains(fromTag, ">") {
		return ContextNormal
	}

	// Odd quote parity is a quoted value; even parity is still an
	// attribute-list position such as <input ... <#CHECKED>.
	return ContextAttribute
}
