package server

import (
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/renderer"
)

// session is the preview state of one document. The override bag is
// replaced on every edit and never mutated, so a render that took a
// snapshot keeps a consistent view.
type session struct {
	mu        sync.RWMutex
	path      string
	overrides *mockdata.FieldBag
	last      *renderer.Result
	renders   int
	updated   time.Time
}

func (s *session) snapshot() *mockdata.FieldBag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides
}

func (s *session) setField(name string, value interface{}) *mockdata.FieldBag {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.overrides.Clone()
	next.Set(name, value)
	s.overrides = next
	s.updated = time.Now()
	return next
}

func (s *session) record(res *renderer.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = res
	s.renders++
	s.updated = time.Now()
}

// SessionInfo summarizes a session for the API.
type SessionInfo struct {
	Document   string                 `json:"document"`
	Overrides  map[string]interface{} `json:"overrides"`
	Renders    int                    `json:"renders"`
	TagErrors  int                    `json:"tagErrors"`
	LastRender time.Time              `json:"lastRender,omitempty"`
}

func (s *session) info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := SessionInfo{
		Document:  s.path,
		Overrides: s.overrides.Map(),
		Renders:   s.renders,
	}
	if s.last != nil {
		info.TagErrors = len(s.last.Errors)
		info.LastRender = s.last.Timestamp
	}
	return info
}

// sessions maps document paths to their preview state.
type sessions struct {
	mu    sync.Mutex
	byDoc map[string]*session
}

func newSessions() *sessions {
	return &sessions{byDoc: make(map[string]*session)}
}

// get returns the session for path, creating it on first use.
func (ss *sessions) get(path string) *session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.byDoc[path]
	if !ok {
		s = &session{path: path, overrides: mockdata.NewFieldBag(), updated: time.Now()}
		ss.byDoc[path] = s
	}
	return s
}

func (ss *sessions) lookup(path string) (*session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.byDoc[path]
	return s, ok
}

func (ss *sessions) reset(path string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_, ok := ss.byDoc[path]
	delete(ss.byDoc, path)
	return ok
}

func (ss *sessions) len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.byDoc)
}

func (ss *sessions) all() []SessionInfo {
	ss.mu.Lock()
	list := make([]*session, 0, len(ss.byDoc))
	for _, s := range ss.byDoc {
		list = append(list, s)
	}
	ss.mu.Unlock()

	infos := make([]SessionInfo, 0, len(list))
	for _, s := range list {
		infos = append(infos, s.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Document < infos[j].Document })
	return infos
}
