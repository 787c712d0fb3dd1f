package scanner

import (
	"regexp"
	"strings"
)

var attributePattern = regexp.MustCompile(`(\w+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'))?`)

// Attributes is the ordered attribute list of a single tag occurrence.
// Names are stored lowercased; a repeated name keeps its first position and
// its last value.
type Attributes struct {
	keys   []string
	values map[string]string
}

// ParseAttributes extracts name/value pairs from the raw attribute text of
// a tag. Values may be single or double quoted. A bare word is recorded with
// the value "true". Fragments that do not match are skipped.
func ParseAttributes(raw string) Attributes {
	attrs := Attributes{values: make(map[string]string)}

	for _, m := range attributePattern.FindAllStringSubmatchIndex(raw, -1) {
		name := strings.ToLower(raw[m[2]:m[3]])

		value := "true"
		switch {
		case m[4] >= 0:
			value = raw[m[4]:m[5]]
		case m[6] >= 0:
			value = raw[m[6]:m[7]]
		}

		attrs.set(name, value)
	}

	return attrs
}

func (a *Attributes) set(name, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, exists := a.values[name]; !exists {
		a.keys = append(a.keys, name)
	}
	a.values[name] = value
}

// Get returns the value for name (case-insensitive), or "" when absent.
func (a Attributes) Get(name string) string {
	return a.values[strings.ToLower(name)]
}

// Lookup returns the value for name and whether it was present.
func (a Attributes) Lookup(name string) (string, bool) {
	v, ok := a.values[strings.ToLower(name)]
	return v, ok
}

// GetOr returns the value for name, or fallback when the attribute is absent
// or empty.
func (a Attributes) GetOr(name, fallback string) string {
	if v := a.Get(name); v != "" {
		return v
	}
	return fallback
}

// Has reports whether the attribute is present.
func (a Attributes) Has(name string) bool {
	_, ok := a.values[strings.ToLower(name)]
	return ok
}

// Keys returns the attribute names in source order.
func (a Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of distinct attributes.
func (a Attributes) Len() int {
	return len(a.keys)
}

// Map returns a copy of the attributes as a plain map.
func (a Attributes) Map() map[string]string {
	out := make(map[string]string, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}
