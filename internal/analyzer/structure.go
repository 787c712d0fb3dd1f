package analyzer

import (
	"golang.org/x/net/html"

	"github.com/conneroisu/aeonkit/internal/dom"
)

// ControlField is the hidden field every Aeon form carries. It identifies
// the form and is never reported as a structural change.
const ControlField = "AeonForm"

// Field is a named form control and where it sits.
type Field struct {
	Name     string
	Node     *html.Node
	Position Position
	// Heading is the section heading element, nil for "main".
	Heading *html.Node
}

// FieldSet is the ordered set of named fields of a document. A name that
// appears more than once keeps its first position in the order and the
// last element's position, the way radio groups collapse.
type FieldSet struct {
	names  []string
	fields map[string]Field
}

// Names returns the field names in first-seen order.
func (s *FieldSet) Names() []string { return s.names }

// Get returns the field for name.
func (s *FieldSet) Get(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Len returns the number of distinct field names.
func (s *FieldSet) Len() int { return len(s.names) }

// ExtractFields collects every input, select and textarea with a name,
// except the control field. Index counts every form control in document
// order, named or not.
func ExtractFields(doc *dom.Document) *FieldSet {
	set := &FieldSet{fields: make(map[string]Field)}
	for i, n := range doc.QueryAll("input, select, textarea") {
		name := dom.AttrOr(n, "name", "")
		if name == "" || name == ControlField {
			continue
		}
		heading, section := findSection(n)
		if _, seen := set.fields[name]; !seen {
			set.names = append(set.names, name)
		}
		set.fields[name] = Field{
			Name:     name,
			Node:     n,
			Heading:  heading,
			Position: Position{Section: section, Index: i, Row: findRow(n)},
		}
	}
	return set
}

// findSection returns the heading of the nearest ancestor that is a
// <section> or contains an h2/h3, and its text. Without one the section is
// "main".
func findSection(n *html.Node) (*html.Node, string) {
	for p := dom.Parent(n); p != nil; p = dom.Parent(p) {
		heading := dom.First(p, "h3, h2")
		if heading != nil {
			return heading, dom.TrimmedText(heading)
		}
		if dom.Matches(p, "section") {
			return nil, "main"
		}
	}
	return nil, "main"
}

// findRow returns the index of the nearest .form-row or .row ancestor
// among its siblings, or 0.
func findRow(n *html.Node) int {
	for p := dom.Parent(n); p != nil; p = dom.Parent(p) {
		if dom.HasClass(p, "form-row") || dom.HasClass(p, "row") {
			if i := dom.Index(p); i >= 0 {
				return i
			}
			return 0
		}
	}
	return 0
}

// detectStructuralChanges reports removed fields in old order, then added
// fields in new order, then moved fields in old order.
func detectStructuralChanges(oldFields, newFields *FieldSet) []StructuralChange {
	var changes []StructuralChange

	for _, name := range oldFields.Names() {
		if _, ok := newFields.Get(name); !ok {
			old, _ := oldFields.Get(name)
			pos := old.Position
			changes = append(changes, StructuralChange{Type: FieldRemoved, FieldID: name, FieldName: name, OldPosition: &pos})
		}
	}

	for _, name := range newFields.Names() {
		if _, ok := oldFields.Get(name); !ok {
			nf, _ := newFields.Get(name)
			pos := nf.Position
			changes = append(changes, StructuralChange{Type: FieldAdded, FieldID: name, FieldName: name, NewPosition: &pos})
		}
	}

	for _, name := range oldFields.Names() {
		nf, ok := newFields.Get(name)
		if !ok {
			continue
		}
		old, _ := oldFields.Get(name)
		if old.Position.Same(nf.Position) {
			continue
		}
		oldPos, newPos := old.Position, nf.Position
		changes = append(changes, StructuralChange{
			Type:        FieldMoved,
			FieldID:     name,
			FieldName:   name,
			OldPosition: &oldPos,
			NewPosition: &newPos,
		})
	}

	return changes
}
