package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(path, hash string, includes ...string) *DocumentInfo {
	return &DocumentInfo{
		FileName: path[len("/ws/"):],
		FilePath: path,
		Hash:     hash,
		Includes: includes,
		LastMod:  time.Now(),
	}
}

func TestRegisterEmitsEvents(t *testing.T) {
	r := NewDocumentRegistry()
	events := r.Watch()

	r.Register(doc("/ws/a.html", "1"))
	r.Register(doc("/ws/a.html", "1"))
	r.Register(doc("/ws/a.html", "2"))
	r.Remove("/ws/a.html")

	require.Len(t, events, 3)
	assert.Equal(t, EventTypeAdded, (<-events).Type)
	assert.Equal(t, EventTypeUpdated, (<-events).Type)
	assert.Equal(t, EventTypeRemoved, (<-events).Type)
	assert.Equal(t, 0, r.Count())
}

func TestAllIsSorted(t *testing.T) {
	r := NewDocumentRegistry()
	r.Register(doc("/ws/b.html", "1"))
	r.Register(doc("/ws/a.html", "1"))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a.html", all[0].FileName)
	assert.Equal(t, "b.html", all[1].FileName)
}

func TestDependents(t *testing.T) {
	r := NewDocumentRegistry()
	r.Register(doc("/ws/a.html", "1", "include_header.html"))
	r.Register(doc("/ws/b.html", "1", "includes/include_header.html", "include_footer.html"))
	r.Register(doc("/ws/c.html", "1"))

	deps := r.Dependents("/ws/includes/include_header.html")
	require.Len(t, deps, 2)
	assert.Equal(t, "/ws/a.html", deps[0].FilePath)
	assert.Equal(t, "/ws/b.html", deps[1].FilePath)

	assert.Empty(t, r.Dependents("missing.html"))
}

func TestUnWatchClosesChannel(t *testing.T) {
	r := NewDocumentRegistry()
	ch := r.Watch()
	r.UnWatch(ch)

	_, open := <-ch
	assert.False(t, open)
}
