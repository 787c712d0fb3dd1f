package mockdata

import (
	"embed"
	"fmt"
	"path"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

// TodayToken is replaced by the current date (YYYY-MM-DD) when a built-in
// profile's data is materialized.
const TodayToken = "$TODAY"

// Built-in profile names, in presentation order.
var builtinOrder = []string{"default", "newUser", "returningUser", "admin", "testData"}

// Profile is a named set of mock field values.
type Profile struct {
	Name    string    `json:"name" yaml:"name"`
	Title   string    `json:"title,omitempty" yaml:"title,omitempty"`
	Data    *FieldBag `json:"data" yaml:"fields"`
	Builtin bool      `json:"-" yaml:"-"`
}

// IsBuiltin reports whether name is one of the shipped profiles.
func IsBuiltin(name string) bool {
	for _, n := range builtinOrder {
		if n == name {
			return true
		}
	}
	return false
}

// BuiltinProfiles decodes the embedded profile files in presentation order.
func BuiltinProfiles() ([]Profile, error) {
	profiles := make([]Profile, 0, len(builtinOrder))
	for _, name := range builtinOrder {
		raw, err := profileFS.ReadFile(path.Join("profiles", name+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("reading built-in profile %s: %w", name, err)
		}

		var p Profile
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding built-in profile %s: %w", name, err)
		}
		if p.Data == nil {
			p.Data = NewFieldBag()
		}
		p.Name = name
		p.Builtin = true
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// materialize returns a clone of the profile data with date tokens resolved.
func (p Profile) materialize(now time.Time) *FieldBag {
	bag := p.Data.Clone()
	today := now.Format("2006-01-02")
	for _, k := range bag.Keys() {
		if s, ok := bag.Get(k).(string); ok && s == TodayToken {
			bag.Set(k, today)
		}
	}
	return bag
}
