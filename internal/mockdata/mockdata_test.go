package mockdata

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
)

func TestFieldBagOrderAndDefaults(t *testing.T) {
	bag := NewFieldBag()
	bag.Set("B", "2")
	bag.Set("A", 1)
	bag.Set("B", "3")
	bag.Set("ErrorMessages", map[string]interface{}{"ItemTitle": "required"})

	assert.Equal(t, []string{"B", "A", "ErrorMessages"}, bag.Keys())
	assert.Equal(t, "3", bag.String("B"))
	assert.Equal(t, "1", bag.String("A"))
	assert.Equal(t, "", bag.String("Missing"))
	assert.Equal(t, "", bag.String("ErrorMessages"))
	assert.Equal(t, map[string]string{"ItemTitle": "required"}, bag.StringMap("ErrorMessages"))
	assert.Empty(t, bag.StringMap("Missing"))
	assert.Empty(t, bag.StringMap("B"))

	bag.Delete("B")
	assert.Equal(t, []string{"A", "ErrorMessages"}, bag.Keys())

	var nilBag *FieldBag
	assert.Equal(t, "", nilBag.String("x"))
	assert.False(t, nilBag.Has("x"))
	assert.Equal(t, 0, nilBag.Len())
}

func TestFieldBagCloneIsDeep(t *testing.T) {
	bag := NewFieldBag()
	bag.Set("ErrorMessages", map[string]string{"Phone": "required"})
	bag.Set("Name", "Jane")

	clone := bag.Clone()
	clone.Set("Name", "John")
	clone.StringMap("ErrorMessages")["Phone"] = "changed"

	assert.Equal(t, "Jane", bag.String("Name"))
	assert.Equal(t, "required", bag.StringMap("ErrorMessages")["Phone"])
}

func TestFieldBagJSONPreservesOrder(t *testing.T) {
	in := `{"Zeta":"z","Alpha":"a","ErrorMessages":{"Phone":"required"},"Count":3,"Empty":null}`

	var bag FieldBag
	require.NoError(t, json.Unmarshal([]byte(in), &bag))
	assert.Equal(t, []string{"Zeta", "Alpha", "ErrorMessages", "Count", "Empty"}, bag.Keys())
	assert.Equal(t, "3", bag.String("Count"))
	assert.Equal(t, "", bag.String("Empty"))

	out, err := json.Marshal(&bag)
	require.NoError(t, err)
	assert.Equal(t, `{"Zeta":"z","Alpha":"a","ErrorMessages":{"Phone":"required"},"Count":"3","Empty":""}`, string(out))
}

func TestFieldBagYAML(t *testing.T) {
	bag := NewFieldBag()
	bag.Set("Second", "2")
	bag.Set("First", "1")

	out, err := yaml.Marshal(bag)
	require.NoError(t, err)
	assert.True(t, strings.Index(string(out), "Second") < strings.Index(string(out), "First"))

	var decoded FieldBag
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, bag.Keys(), decoded.Keys())

	assert.Error(t, yaml.Unmarshal([]byte("- a\n- b\n"), &decoded))
}

func TestBuiltinProfiles(t *testing.T) {
	profiles, err := BuiltinProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 5)

	for _, p := range profiles {
		assert.True(t, p.Builtin)
		assert.True(t, IsBuiltin(p.Name))
		assert.True(t, p.Data.Has("FormState"), p.Name)
		assert.True(t, p.Data.Has("ErrorMessages"), p.Name)
	}

	assert.Equal(t, "12345", profiles[0].Data.String("TransactionNumber"))
	assert.Equal(t, "Test-User's", profiles[4].Data.String("FirstName"))
	assert.Len(t, profiles[4].Data.StringMap("ErrorMessages"), 3)
	assert.False(t, IsBuiltin("custom"))
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
}

func TestManagerCurrentDataResolvesToday(t *testing.T) {
	m, err := NewManager(nil, WithClock(fixedClock))
	require.NoError(t, err)

	data := m.CurrentData()
	assert.Equal(t, "2026-03-04", data.String("TransactionDate"))
	assert.Equal(t, "Loan", data.String("RequestType"))
}

func TestManagerOverridesAreCloneOnEdit(t *testing.T) {
	m, err := NewManager(nil)
	require.NoError(t, err)

	before := m.CurrentData()
	m.UpdateField("ItemTitle", "Edited")
	after := m.CurrentData()

	assert.Equal(t, "Sample Document Title", before.String("ItemTitle"))
	assert.Equal(t, "Edited", after.String("ItemTitle"))

	require.NoError(t, m.SetProfile("admin"))
	assert.Equal(t, "Administrative Test Document", m.CurrentData().String("ItemTitle"))
	assert.Equal(t, 0, m.Overrides().Len())

	err = m.SetProfile("nope")
	assert.ErrorIs(t, err, aeonerrors.ErrProfileNotFound)
	assert.Equal(t, "admin", m.CurrentProfile())
}

func TestManagerConcurrentSnapshots(t *testing.T) {
	m, err := NewManager(nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snapshot := m.CurrentData()
			m.UpdateField("ItemTitle", i)
			snapshot.Set("Local", "x")
		}(i)
	}
	wg.Wait()

	assert.False(t, m.CurrentData().Has("Local"))
}

type memoryStore struct {
	saved  []Profile
	loaded []Profile
	err    error
}

func (s *memoryStore) LoadProfiles() ([]Profile, error) { return s.loaded, nil }
func (s *memoryStore) SaveProfiles(p []Profile) error {
	s.saved = p
	return s.err
}

func TestManagerCustomProfiles(t *testing.T) {
	store := &memoryStore{loaded: []Profile{{Name: "stored", Data: FromMap(map[string]interface{}{"ItemTitle": "Stored"})}}}
	extra := []Profile{
		{Name: "fromConfig", Data: FromMap(map[string]interface{}{"ItemTitle": "Configured"})},
		{Name: "default", Data: NewFieldBag()},
		{Name: "", Data: NewFieldBag()},
	}

	m, err := NewManager(extra, WithStore(store))
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "newUser", "returningUser", "admin", "testData", "stored", "fromConfig"}, m.ProfileNames())

	m.UpdateField("ItemTitle", "Mine")
	require.NoError(t, m.SaveCustomProfile("mine"))
	require.Len(t, store.saved, 3)

	require.NoError(t, m.SetProfile("mine"))
	assert.Equal(t, "Mine", m.CurrentData().String("ItemTitle"))

	require.NoError(t, m.DeleteCustomProfile("mine"))
	assert.Equal(t, DefaultProfile, m.CurrentProfile())
	assert.Len(t, store.saved, 2)

	err = m.DeleteCustomProfile("default")
	assert.ErrorIs(t, err, aeonerrors.ErrBuiltinProfile)
	assert.ErrorIs(t, m.SaveCustomProfile("admin"), aeonerrors.ErrBuiltinProfile)
	assert.ErrorIs(t, m.DeleteCustomProfile("ghost"), aeonerrors.ErrProfileNotFound)
}

func TestManagerPersistFailure(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	m, err := NewManager(nil, WithStore(store))
	require.NoError(t, err)

	err = m.SaveCustomProfile("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestManagerExportImport(t *testing.T) {
	m, err := NewManager(nil, WithClock(fixedClock))
	require.NoError(t, err)

	exported, err := m.ExportProfile("returningUser")
	require.NoError(t, err)
	assert.Contains(t, exported, `"name": "returningUser"`)

	name, err := m.ImportProfile(exported)
	require.NoError(t, err)
	assert.Equal(t, "returningUser (1)", name)

	name, err = m.ImportProfile(exported)
	require.NoError(t, err)
	assert.Equal(t, "returningUser (2)", name)

	data, err := m.ProfileData("returningUser (1)")
	require.NoError(t, err)
	assert.Equal(t, "This field is required", data.StringMap("ErrorMessages")["ItemTitle"])
	assert.Equal(t, "2026-03-04", data.String("TransactionDate"))

	_, err = m.ImportProfile(`{"name":""}`)
	assert.Error(t, err)
	_, err = m.ImportProfile(`not json`)
	assert.Error(t, err)
	_, err = m.ExportProfile("ghost")
	assert.True(t, aeonerrors.IsNotFound(err))
}

func TestGeneratorFillMissing(t *testing.T) {
	g := NewGenerator(42)
	bag := FromMap(map[string]interface{}{"ItemTitle": ""})

	filled := g.FillMissing(bag, []string{"ItemTitle", "EmailAddress", "ScheduledDate", "ItemPages", "Widget", ""})

	assert.Equal(t, []string{"EmailAddress", "ScheduledDate", "ItemPages", "Widget"}, filled)
	assert.Equal(t, "", bag.String("ItemTitle"))
	assert.Contains(t, bag.String("EmailAddress"), "@")
	_, err := time.Parse("2006-01-02", bag.String("ScheduledDate"))
	assert.NoError(t, err)
	assert.Contains(t, bag.String("ItemPages"), "-")
	assert.Equal(t, "Sample Widget", bag.String("Widget"))
}

func TestGeneratorIsDeterministicForSeed(t *testing.T) {
	a := NewGenerator(7)
	b := NewGenerator(7)
	for _, f := range []string{"FirstName", "City", "Phone", "TransactionNumber"} {
		assert.Equal(t, a.Value(f), b.Value(f), f)
	}
}

func TestGeneratorConcurrentUse(t *testing.T) {
	g := NewGenerator(1)
	fields := []string{"EmailAddress", "Phone", "ZipCode", "ItemPages", "LastName"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				bag := NewFieldBag()
				filled := g.FillMissing(bag, fields)
				assert.Len(t, filled, len(fields))
			}
		}()
	}
	wg.Wait()
}
