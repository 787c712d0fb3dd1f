package analyzer

import "time"

// ContentType classifies a detected textual difference.
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentLabel      ContentType = "label"
	ContentHelp       ContentType = "help"
	ContentError      ContentType = "error"
	ContentHeading    ContentType = "heading"
	ContentParagraph  ContentType = "paragraph"
	ContentList       ContentType = "list"
	ContentTableCell  ContentType = "table-cell"
	ContentBlock      ContentType = "content-block"
	ContentBlockquote ContentType = "blockquote"
)

// VerifyManually is the new value of content changes whose counterpart in
// the new template could not be located automatically.
const VerifyManually = "[Check if exists in new template]"

// ContentChange is one textual difference. Identity is (Type, Location).
type ContentChange struct {
	Type        ContentType `json:"type"`
	Location    string      `json:"location"`
	OldValue    string      `json:"oldValue"`
	NewValue    string      `json:"newValue"`
	ElementPath string      `json:"elementPath"`
}

// ID returns the customization id used in migration selections.
func (c ContentChange) ID() string { return "content-" + c.Location }

// NeedsManualCheck reports whether the change is a placeholder rather than
// a confirmed old/new pair.
func (c ContentChange) NeedsManualCheck() bool { return c.NewValue == VerifyManually }

// StructuralType classifies a form field difference.
type StructuralType string

const (
	FieldAdded       StructuralType = "field-added"
	FieldRemoved     StructuralType = "field-removed"
	FieldMoved       StructuralType = "field-moved"
	SectionReordered StructuralType = "section-reordered"
)

// Position locates a form field within its page.
type Position struct {
	// Section is the text of the nearest section heading, or "main".
	Section string `json:"section"`
	// Index is the document order among input, select and textarea
	// elements.
	Index int `json:"index"`
	// Row is the index of the enclosing row container among its siblings.
	Row int `json:"row"`
}

// Same reports whether two positions share section and index. Row is
// informational only.
func (p Position) Same(other Position) bool {
	return p.Section == other.Section && p.Index == other.Index
}

// StructuralChange is one form field difference. Identity is
// (FieldID, Type).
type StructuralChange struct {
	Type        StructuralType `json:"type"`
	FieldID     string         `json:"fieldId"`
	FieldName   string         `json:"fieldName"`
	OldPosition *Position      `json:"oldPosition,omitempty"`
	NewPosition *Position      `json:"newPosition,omitempty"`
}

// ID returns the customization id used in migration selections.
func (c StructuralChange) ID() string { return "structure-" + c.FieldID }

// ScriptType classifies a script difference.
type ScriptType string

const (
	ScriptInline       ScriptType = "inline"
	ScriptExternal     ScriptType = "external"
	ScriptEventHandler ScriptType = "event-handler"
)

// ScriptChange is a script present in the old page with no equivalent in
// the new template.
type ScriptChange struct {
	Type             ScriptType `json:"type"`
	Content          string     `json:"content"`
	Location         string     `json:"location"`
	Purpose          string     `json:"purpose,omitempty"`
	SuggestedRewrite string     `json:"suggestedRewrite,omitempty"`
}

// ID returns the customization id used in migration selections.
func (c ScriptChange) ID() string { return "javascript-" + c.Location }

// Customizations groups the detected differences by kind.
type Customizations struct {
	Content    []ContentChange    `json:"content"`
	Structure  []StructuralChange `json:"structure"`
	JavaScript []ScriptChange     `json:"javascript"`
}

// Count returns the total number of detected differences.
func (c Customizations) Count() int {
	return len(c.Content) + len(c.Structure) + len(c.JavaScript)
}

// PageAnalysis is the result of comparing a customized page against a
// default template. It is persisted one record per page.
type PageAnalysis struct {
	OriginalPage     string         `json:"originalPage"`
	Customizations   Customizations `json:"customizations"`
	AeonVersion      string         `json:"aeonVersion"`
	DetectedFeatures []string       `json:"detectedFeatures"`
	AnalyzedAt       time.Time      `json:"analyzedAt"`
}

// IDs lists every customization id of the analysis in detection order.
// Ids are not guaranteed unique: two script changes in the same location
// share one.
func (a *PageAnalysis) IDs() []string {
	var ids []string
	for _, c := range a.Customizations.Content {
		ids = append(ids, c.ID())
	}
	for _, c := range a.Customizations.Structure {
		ids = append(ids, c.ID())
	}
	for _, c := range a.Customizations.JavaScript {
		ids = append(ids, c.ID())
	}
	return ids
}
