package mockdata

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
)

// DefaultProfile is the profile selected when nothing else is configured.
const DefaultProfile = "default"

// ProfileStore persists custom profiles. Implementations must write the
// full list on every save.
type ProfileStore interface {
	LoadProfiles() ([]Profile, error)
	SaveProfiles(profiles []Profile) error
}

// Manager owns the set of profiles, the current selection and the field
// overrides applied on top of it.
//
// CurrentData always returns a fresh clone, so expansions in flight never
// observe later edits.
type Manager struct {
	mu        sync.RWMutex
	profiles  map[string]Profile
	custom    []string
	current   string
	overrides *FieldBag
	store     ProfileStore
	now       func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStore persists custom profiles through store.
func WithStore(store ProfileStore) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithClock overrides the clock used to resolve date tokens.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager loads the built-in profiles, then any custom profiles from the
// configured store, then the extra profiles passed in (typically from the
// configuration file). Later definitions replace earlier custom ones with
// the same name; built-ins cannot be replaced.
func NewManager(extra []Profile, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		profiles:  make(map[string]Profile),
		current:   DefaultProfile,
		overrides: NewFieldBag(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	builtins, err := BuiltinProfiles()
	if err != nil {
		return nil, err
	}
	for _, p := range builtins {
		m.profiles[p.Name] = p
	}

	var custom []Profile
	if m.store != nil {
		stored, err := m.store.LoadProfiles()
		if err != nil {
			return nil, fmt.Errorf("loading custom profiles: %w", err)
		}
		custom = append(custom, stored...)
	}
	custom = append(custom, extra...)

	for _, p := range custom {
		if p.Name == "" || p.Data == nil || IsBuiltin(p.Name) {
			continue
		}
		m.addCustom(p)
	}

	return m, nil
}

func (m *Manager) addCustom(p Profile) {
	p.Builtin = false
	p.Data = p.Data.Clone()
	if _, exists := m.profiles[p.Name]; !exists {
		m.custom = append(m.custom, p.Name)
	}
	m.profiles[p.Name] = p
}

// CurrentProfile returns the name of the selected profile.
func (m *Manager) CurrentProfile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// ProfileNames returns built-in profiles first, then custom profiles in the
// order they were added.
func (m *Manager) ProfileNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := append([]string(nil), builtinOrder...)
	return append(names, m.custom...)
}

// SetProfile selects a profile and clears field overrides.
func (m *Manager) SetProfile(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[name]; !ok {
		return aeonerrors.NewNotFoundError(aeonerrors.ErrCodeProfileNotFound,
			fmt.Sprintf("profile not found: %s", name))
	}
	m.current = name
	m.overrides = NewFieldBag()
	return nil
}

// CurrentData returns a clone of the selected profile's data with the field
// overrides applied.
func (m *Manager) CurrentData() *FieldBag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bag := m.profiles[m.current].materialize(m.now())
	bag.Merge(m.overrides)
	return bag
}

// ProfileData returns a clone of a named profile's data, without overrides.
func (m *Manager) ProfileData(name string) (*FieldBag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[name]
	if !ok {
		return nil, aeonerrors.NewNotFoundError(aeonerrors.ErrCodeProfileNotFound,
			fmt.Sprintf("profile not found: %s", name))
	}
	return p.materialize(m.now()), nil
}

// UpdateField records an override for the current profile. The override
// bag is replaced, not mutated, so snapshots taken earlier are unaffected.
func (m *Manager) UpdateField(name string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.overrides.Clone()
	next.Set(name, value)
	m.overrides = next
}

// Overrides returns a copy of the current field overrides.
func (m *Manager) Overrides() *FieldBag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overrides.Clone()
}

// SaveCustomProfile stores the current data (profile plus overrides) under
// name and persists the custom profile list.
func (m *Manager) SaveCustomProfile(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return aeonerrors.NewValidationError(aeonerrors.ErrCodeInvalidProfile, "profile name is required")
	}
	if IsBuiltin(name) {
		return aeonerrors.NewValidationError(aeonerrors.ErrCodeBuiltinProfile,
			fmt.Sprintf("cannot overwrite built-in profile: %s", name))
	}

	data := m.CurrentData()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.addCustom(Profile{Name: name, Data: data})
	return m.persistLocked()
}

// DeleteCustomProfile removes a custom profile. Built-in profiles cannot be
// deleted. Deleting the current profile selects the default one.
func (m *Manager) DeleteCustomProfile(name string) error {
	if IsBuiltin(name) {
		return aeonerrors.NewValidationError(aeonerrors.ErrCodeBuiltinProfile,
			fmt.Sprintf("cannot delete built-in profile: %s", name))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[name]; !ok {
		return aeonerrors.NewNotFoundError(aeonerrors.ErrCodeProfileNotFound,
			fmt.Sprintf("profile not found: %s", name))
	}

	delete(m.profiles, name)
	for i, n := range m.custom {
		if n == name {
			m.custom = append(m.custom[:i], m.custom[i+1:]...)
			break
		}
	}

	if m.current == name {
		m.current = DefaultProfile
		m.overrides = NewFieldBag()
	}

	return m.persistLocked()
}

type exportedProfile struct {
	Name string    `json:"name"`
	Data *FieldBag `json:"data"`
}

// ExportProfile renders a profile as indented JSON {name, data}.
func (m *Manager) ExportProfile(name string) (string, error) {
	data, err := m.ProfileData(name)
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(exportedProfile{Name: name, Data: data}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding profile %s: %w", name, err)
	}
	return string(out), nil
}

// ImportProfile adds the profile encoded in content as a custom profile.
// When the name is taken, " (1)", " (2)", ... is appended until it is
// unique. It returns the name actually used.
func (m *Manager) ImportProfile(content string) (string, error) {
	var parsed exportedProfile
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", aeonerrors.NewParseError(aeonerrors.ErrCodeInvalidProfile, "failed to import profile", err)
	}
	if parsed.Name == "" || parsed.Data == nil {
		return "", aeonerrors.NewValidationError(aeonerrors.ErrCodeInvalidProfile,
			"failed to import profile: invalid profile format")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := parsed.Name
	for counter := 1; ; counter++ {
		if _, taken := m.profiles[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s (%d)", parsed.Name, counter)
	}

	m.addCustom(Profile{Name: name, Data: parsed.Data})
	if err := m.persistLocked(); err != nil {
		return "", err
	}
	return name, nil
}

// CustomProfiles returns copies of the custom profiles, sorted by name.
func (m *Manager) CustomProfiles() []Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customLocked()
}

func (m *Manager) customLocked() []Profile {
	out := make([]Profile, 0, len(m.custom))
	for _, n := range m.custom {
		p := m.profiles[n]
		out = append(out, Profile{Name: p.Name, Title: p.Title, Data: p.Data.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manager) persistLocked() error {
	if m.store == nil {
		return nil
	}
	if err := m.store.SaveProfiles(m.customLocked()); err != nil {
		return aeonerrors.NewIOError(aeonerrors.ErrCodePersistFailed, "failed to save custom profiles", err)
	}
	return nil
}
