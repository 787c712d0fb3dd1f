// Package diff computes line and structural differences between two HTML
// pages for the migration workflow: a unified patch, a numbered
// side-by-side view, an HTML rendering of the line diff, and a report of
// form field and style differences.
package diff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// PatchFile is the file name used in unified diff headers.
const PatchFile = "page.html"

// ChangeType classifies one line of a line diff.
type ChangeType string

const (
	Added     ChangeType = "added"
	Removed   ChangeType = "removed"
	Modified  ChangeType = "modified"
	Unchanged ChangeType = "unchanged"
)

// LineNumbers holds the 1-based line numbers of a diff line. Added lines
// only have New, removed lines only have Old.
type LineNumbers struct {
	Old int `json:"old,omitempty"`
	New int `json:"new,omitempty"`
}

// LineChange is one line of a side-by-side diff.
type LineChange struct {
	Type        ChangeType  `json:"type"`
	Content     string      `json:"content"`
	LineNumbers LineNumbers `json:"lineNumbers"`
}

// SideBySide is the two sides of a line diff plus the aligned change list.
type SideBySide struct {
	Old     string       `json:"old"`
	New     string       `json:"new"`
	Changes []LineChange `json:"changes"`
}

// Block is a run of consecutive lines with the same change type.
type Block struct {
	Type    ChangeType `json:"type"`
	Content string     `json:"content"`
}

// splitLines splits s into lines that each keep their newline. A missing
// final newline is added, and no empty trailing line is produced.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}

// Unified returns a unified patch from oldContent to newContent with three
// lines of context. Identical inputs produce an empty patch.
func Unified(oldContent, newContent string) (string, error) {
	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(oldContent),
		B:        splitLines(newContent),
		FromFile: PatchFile,
		FromDate: "Old Version",
		ToFile:   PatchFile,
		ToDate:   "New Version",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("unified diff: %w", err)
	}
	return patch, nil
}

// Blocks returns the line diff as runs of added, removed and unchanged
// lines. A replaced run yields its removed block before its added block.
func Blocks(oldContent, newContent string) []Block {
	a, b := splitLines(oldContent), splitLines(newContent)
	var blocks []Block
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			blocks = append(blocks, Block{Type: Unchanged, Content: strings.Join(a[op.I1:op.I2], "")})
		case 'd':
			blocks = append(blocks, Block{Type: Removed, Content: strings.Join(a[op.I1:op.I2], "")})
		case 'i':
			blocks = append(blocks, Block{Type: Added, Content: strings.Join(b[op.J1:op.J2], "")})
		case 'r':
			blocks = append(blocks,
				Block{Type: Removed, Content: strings.Join(a[op.I1:op.I2], "")},
				Block{Type: Added, Content: strings.Join(b[op.J1:op.J2], "")})
		}
	}
	return blocks
}

// SideBySideDiff numbers each side independently from 1. Blank lines are
// kept so numbers match the files.
func SideBySideDiff(oldContent, newContent string) SideBySide {
	var (
		oldLines, newLines []string
		changes            []LineChange
		oldNum, newNum     = 1, 1
	)

	for _, block := range Blocks(oldContent, newContent) {
		for _, line := range splitLines(block.Content) {
			line = strings.TrimSuffix(line, "\n")
			switch block.Type {
			case Added:
				newLines = append(newLines, line)
				changes = append(changes, LineChange{Type: Added, Content: line, LineNumbers: LineNumbers{New: newNum}})
				newNum++
			case Removed:
				oldLines = append(oldLines, line)
				changes = append(changes, LineChange{Type: Removed, Content: line, LineNumbers: LineNumbers{Old: oldNum}})
				oldNum++
			default:
				oldLines = append(oldLines, line)
				newLines = append(newLines, line)
				changes = append(changes, LineChange{Type: Unchanged, Content: line, LineNumbers: LineNumbers{Old: oldNum, New: newNum}})
				oldNum++
				newNum++
			}
		}
	}

	return SideBySide{
		Old:     strings.Join(oldLines, "\n"),
		New:     strings.Join(newLines, "\n"),
		Changes: changes,
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// RenderHTML renders the line diff as a diff-container block with one row
// per non-empty line. Style it with Stylesheet.
func RenderHTML(oldContent, newContent string) string {
	var b strings.Builder
	b.WriteString(`<div class="diff-container">`)
	for _, block := range Blocks(oldContent, newContent) {
		class, prefix := "diff-unchanged", " "
		switch block.Type {
		case Added:
			class, prefix = "diff-added", "+"
		case Removed:
			class, prefix = "diff-removed", "-"
		}
		for _, line := range strings.Split(block.Content, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(&b, `<div class="%s"><span class="diff-prefix">%s</span>%s</div>`, class, prefix, htmlEscaper.Replace(line))
		}
	}
	b.WriteString("</div>")
	return b.String()
}

// Stylesheet styles the markup produced by RenderHTML.
const Stylesheet = `.diff-container {
    font-family: 'Consolas', 'Monaco', monospace;
    font-size: 13px;
    line-height: 1.4;
    background: #f8f8f8;
    border: 1px solid #ddd;
    border-radius: 4px;
    padding: 10px;
    overflow-x: auto;
}

.diff-added {
    background-color: #e6ffed;
    color: #24292e;
}

.diff-removed {
    background-color: #ffeef0;
    color: #24292e;
}

.diff-unchanged {
    color: #586069;
}

.diff-prefix {
    display: inline-block;
    width: 20px;
    text-align: center;
    color: #959da5;
    user-select: none;
}

.diff-added .diff-prefix {
    color: #28a745;
}

.diff-removed .diff-prefix {
    color: #d73a49;
}
`
