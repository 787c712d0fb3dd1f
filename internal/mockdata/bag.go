// Package mockdata provides the field bag that stands in for live Aeon
// server data during preview, the built-in and custom data profiles, and a
// profile manager that applies field overrides by cloning.
package mockdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// FieldBag is an ordered mapping from field name to value. Values are
// strings, map[string]string (for ErrorMessages) or []string.
//
// Lookups for absent keys return zero values rather than errors so that
// templates render with incomplete data. A FieldBag is not safe for
// concurrent mutation; share it read-only and Clone before editing.
type FieldBag struct {
	keys   []string
	values map[string]interface{}
}

// NewFieldBag creates an empty bag.
func NewFieldBag() *FieldBag {
	return &FieldBag{values: make(map[string]interface{})}
}

// FromMap builds a bag from an unordered map. Keys are inserted in sorted
// order so the result is deterministic.
func FromMap(data map[string]interface{}) *FieldBag {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bag := NewFieldBag()
	for _, k := range keys {
		bag.Set(k, data[k])
	}
	return bag
}

// Get returns the raw value for name, or nil when absent.
func (b *FieldBag) Get(name string) interface{} {
	if b == nil {
		return nil
	}
	return b.values[name]
}

// Has reports whether name is present.
func (b *FieldBag) Has(name string) bool {
	if b == nil {
		return false
	}
	_, ok := b.values[name]
	return ok
}

// String returns the value for name coerced to a string. Absent fields and
// values that have no string form (maps, lists) yield "".
func (b *FieldBag) String(name string) string {
	switch v := b.Get(name).(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]string, []string:
		return ""
	default:
		return cast.ToString(v)
	}
}

// StringMap returns a map-valued field such as ErrorMessages. Absent or
// non-map fields yield an empty map.
func (b *FieldBag) StringMap(name string) map[string]string {
	switch v := b.Get(name).(type) {
	case map[string]string:
		return v
	case nil, string:
		return map[string]string{}
	default:
		m, err := cast.ToStringMapStringE(v)
		if err != nil {
			return map[string]string{}
		}
		return m
	}
}

// Set stores a value, normalizing it to one of the supported shapes. New
// keys are appended to the key order.
func (b *FieldBag) Set(name string, value interface{}) {
	if b.values == nil {
		b.values = make(map[string]interface{})
	}
	if _, exists := b.values[name]; !exists {
		b.keys = append(b.keys, name)
	}
	b.values[name] = normalize(value)
}

// Delete removes a field.
func (b *FieldBag) Delete(name string) {
	if _, exists := b.values[name]; !exists {
		return
	}
	delete(b.values, name)
	for i, k := range b.keys {
		if k == name {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

// Keys returns field names in insertion order.
func (b *FieldBag) Keys() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len returns the number of fields.
func (b *FieldBag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Clone returns a deep copy that shares nothing with b.
func (b *FieldBag) Clone() *FieldBag {
	c := NewFieldBag()
	if b == nil {
		return c
	}
	for _, k := range b.keys {
		c.Set(k, b.values[k])
	}
	return c
}

// Merge sets every field of other onto b, in other's order.
func (b *FieldBag) Merge(other *FieldBag) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		b.Set(k, other.values[k])
	}
}

// Map returns a copy of the bag as a plain map.
func (b *FieldBag) Map() map[string]interface{} {
	out := make(map[string]interface{}, b.Len())
	if b == nil {
		return out
	}
	for _, k := range b.keys {
		out[k] = normalize(b.values[k])
	}
	return out
}

func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]string:
		m := make(map[string]string, len(v))
		for k, s := range v {
			m[k] = s
		}
		return m
	case map[string]interface{}, map[interface{}]interface{}:
		return cast.ToStringMapString(v)
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		return cast.ToStringSlice(v)
	default:
		return cast.ToString(v)
	}
}

// MarshalJSON writes the fields as a JSON object in key order.
func (b *FieldBag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order. JSON is decoded
// through the YAML node API, which keeps mapping order.
func (b *FieldBag) UnmarshalJSON(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	return b.fromNode(&node)
}

// MarshalYAML writes the fields as an ordered YAML mapping.
func (b *FieldBag) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range b.keys {
		var val yaml.Node
		if err := val.Encode(b.values[k]); err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&val,
		)
	}
	return node, nil
}

// UnmarshalYAML reads an ordered YAML mapping.
func (b *FieldBag) UnmarshalYAML(node *yaml.Node) error {
	return b.fromNode(node)
}

func (b *FieldBag) fromNode(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			*b = *NewFieldBag()
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("field bag must be a mapping, got %s", kindName(node.Kind))
	}

	fresh := NewFieldBag()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch val.Kind {
		case yaml.MappingNode:
			m := make(map[string]string, len(val.Content)/2)
			for j := 0; j+1 < len(val.Content); j += 2 {
				m[val.Content[j].Value] = val.Content[j+1].Value
			}
			fresh.Set(key, m)
		case yaml.SequenceNode:
			list := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				list = append(list, item.Value)
			}
			fresh.Set(key, list)
		case yaml.ScalarNode:
			if val.Tag == "!!null" {
				fresh.Set(key, "")
				continue
			}
			fresh.Set(key, val.Value)
		default:
			return fmt.Errorf("field %s: unsupported value kind %s", key, kindName(val.Kind))
		}
	}

	*b = *fresh
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
