package renderer

import (
	"fmt"

	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/scanner"
)

// TagInfo records one expanded tag occurrence so a rendered element can be
// traced back to its source tag.
type TagInfo struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Attributes   string `json:"attributes"`
	OriginalText string `json:"originalText"`
	Context      string `json:"context"`
	Line         int    `json:"line"`
	Column       int    `json:"column"`
}

// ProcessingContext is the mutable state of one top-level expansion. It is
// shared by reference with every nested include so that the cycle guard and
// the error list span the whole include tree. Never share a context between
// concurrent expansions.
type ProcessingContext struct {
	// MockData is read by handlers. It should be a clone owned by this
	// expansion.
	MockData *mockdata.FieldBag
	// IncludedFiles grows monotonically for the life of the context.
	IncludedFiles map[string]bool
	Errors        *aeonerrors.ErrorCollector
	// TagMap is keyed by a sequential id ("tag-1", "tag-2", ...).
	TagMap map[string]TagInfo
	// DocumentPath is the file being expanded; includes with search path
	// "." resolve against its directory.
	DocumentPath string
	// WorkspaceRoot anchors relative search paths.
	WorkspaceRoot string
	// SearchPaths overrides the engine's include search paths when set.
	SearchPaths []string

	tagSeq   int
	tagOrder []string
}

// NewProcessingContext creates a fresh context over data. A nil bag is
// replaced by an empty one.
func NewProcessingContext(data *mockdata.FieldBag) *ProcessingContext {
	if data == nil {
		data = mockdata.NewFieldBag()
	}
	return &ProcessingContext{
		MockData:      data,
		IncludedFiles: make(map[string]bool),
		Errors:        aeonerrors.NewErrorCollector(),
		TagMap:        make(map[string]TagInfo),
	}
}

func (c *ProcessingContext) recordTag(occ scanner.Occurrence, content string, ctx scanner.Context) string {
	c.tagSeq++
	id := fmt.Sprintf("tag-%d", c.tagSeq)
	pos := scanner.PositionAt(content, occ.Start)
	c.TagMap[id] = TagInfo{
		ID:           id,
		Type:         occ.Name,
		Attributes:   occ.RawAttributes,
		OriginalText: occ.Text,
		Context:      ctx.String(),
		Line:         pos.Line,
		Column:       pos.Column,
	}
	c.tagOrder = append(c.tagOrder, id)
	return id
}

// Tags returns the recorded tag occurrences in expansion order.
func (c *ProcessingContext) Tags() []TagInfo {
	out := make([]TagInfo, 0, len(c.tagOrder))
	for _, id := range c.tagOrder {
		out = append(out, c.TagMap[id])
	}
	return out
}

func (c *ProcessingContext) addError(tag string, position int, err error) {
	c.Errors.Add(aeonerrors.TagError{Tag: tag, Message: err.Error(), Position: position})
}
