// Package scanner finds Aeon tag occurrences in document text, parses their
// attribute lists and classifies the HTML context each occurrence sits in.
// It also discovers Aeon documents on disk for workspace-wide operations.
package scanner

import (
	"regexp"
	"strings"

	"github.com/conneroisu/aeonkit/internal/catalog"
)

var tagPattern = regexp.MustCompile(`<#(\w+)([^>]*)>`)

// Occurrence is one `<#NAME attrs>` match within a scan pass.
type Occurrence struct {
	// Name is the canonical (uppercase) tag name.
	Name string
	// RawAttributes is the text between the tag name and the closing '>'.
	RawAttributes string
	// Text is the full matched tag text.
	Text  string
	Start int
	End   int
}

// Attributes parses the occurrence's raw attribute text.
func (o Occurrence) Attributes() Attributes {
	return ParseAttributes(o.RawAttributes)
}

// FindTags returns every tag occurrence in content in ascending offset order.
func FindTags(content string) []Occurrence {
	matches := tagPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	occurrences := make([]Occurrence, 0, len(matches))
	for _, m := range matches {
		occurrences = append(occurrences, Occurrence{
			Name:          catalog.Canonical(content[m[2]:m[3]]),
			RawAttributes: content[m[4]:m[5]],
			Text:          content[m[0]:m[1]],
			Start:         m[0],
			End:           m[1],
		})
	}
	return occurrences
}

// HasTags reports whether content contains at least one tag occurrence.
func HasTags(content string) bool {
	return strings.Contains(content, "<#") && tagPattern.MatchString(content)
}

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// PositionAt converts a byte offset in content to a line and column.
func PositionAt(content string, offset int) Position {
	if offset > len(content) {
		offset = len(content)
	}
	if offset < 0 {
		offset = 0
	}
	before := content[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return Position{Line: line, Column: col}
}
