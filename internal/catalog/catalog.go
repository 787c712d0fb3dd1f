// Package catalog is the static registry of Aeon tags: their names,
// categories, declared attributes and documentation.
//
// The registry is built once at package initialization and never mutated
// afterwards, so it is safe to share between concurrent expansions and the
// diagnostics, completion and hover surfaces.
package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category groups tags for documentation and completion.
type Category string

const (
	CategoryDisplay  Category = "display"
	CategoryInclude  Category = "include"
	CategoryControl  Category = "control"
	CategoryTable    Category = "table"
	CategoryUser     Category = "user"
	CategoryActivity Category = "activity"
	CategoryUtility  Category = "utility"
)

// Title returns the human-readable category label.
func (c Category) Title() string {
	return cases.Title(language.English).String(string(c))
}

// AttributeType is the declared value type of a tag attribute.
type AttributeType string

const (
	TypeString  AttributeType = "string"
	TypeNumber  AttributeType = "number"
	TypeBoolean AttributeType = "boolean"
	TypeEnum    AttributeType = "enum"
)

// AttributeSpec describes one attribute a tag accepts.
type AttributeSpec struct {
	Name          string        `json:"name" yaml:"name"`
	Required      bool          `json:"required" yaml:"required"`
	Type          AttributeType `json:"type" yaml:"type"`
	AllowedValues []string      `json:"allowedValues,omitempty" yaml:"allowed_values,omitempty"`
	Description   string        `json:"description" yaml:"description"`
}

// Allows reports whether value is acceptable for an enum attribute.
// Non-enum attributes accept any value. Comparison ignores case.
func (a AttributeSpec) Allows(value string) bool {
	if a.Type != TypeEnum || len(a.AllowedValues) == 0 {
		return true
	}
	for _, v := range a.AllowedValues {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// TagDefinition documents a single Aeon tag.
type TagDefinition struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Category    Category        `json:"category" yaml:"category"`
	Attributes  []AttributeSpec `json:"attributes" yaml:"attributes"`
	Examples    []string        `json:"examples" yaml:"examples"`
}

// Attribute looks up a declared attribute by name, ignoring case.
func (d *TagDefinition) Attribute(name string) (AttributeSpec, bool) {
	for _, a := range d.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return AttributeSpec{}, false
}

// RequiredAttributes returns the names of the attributes that must be present.
func (d *TagDefinition) RequiredAttributes() []string {
	var names []string
	for _, a := range d.Attributes {
		if a.Required {
			names = append(names, a.Name)
		}
	}
	return names
}

var upper = cases.Upper(language.Und)

// Canonical returns the canonical (uppercase) form of a tag name.
func Canonical(name string) string {
	return upper.String(strings.TrimSpace(name))
}

var registry = buildRegistry()

func buildRegistry() map[string]*TagDefinition {
	m := make(map[string]*TagDefinition, len(definitions))
	for i := range definitions {
		d := &definitions[i]
		m[Canonical(d.Name)] = d
	}
	return m
}

// Lookup returns the definition for a tag name, matched case-insensitively.
func Lookup(name string) (*TagDefinition, bool) {
	d, ok := registry[Canonical(name)]
	return d, ok
}

// Names returns every registered tag name in declaration order.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for _, d := range definitions {
		names = append(names, d.Name)
	}
	return names
}

// All returns every definition in declaration order.
func All() []*TagDefinition {
	all := make([]*TagDefinition, 0, len(definitions))
	for i := range definitions {
		all = append(all, &definitions[i])
	}
	return all
}

// ByCategory returns the definitions in one category.
func ByCategory(category Category) []*TagDefinition {
	var out []*TagDefinition
	for i := range definitions {
		if definitions[i].Category == category {
			out = append(out, &definitions[i])
		}
	}
	return out
}

// Categories returns the categories that have at least one tag, sorted.
func Categories() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, d := range definitions {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
