// Package registry keeps an in-memory index of the Aeon documents found in a
// workspace and broadcasts changes to interested listeners such as the
// preview server.
package registry

import (
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PageType is the coarse kind of an Aeon page, inferred from its file name
// and content.
type PageType string

const (
	PageTypeRequest PageType = "request"
	PageTypeView    PageType = "view"
	PageTypeAdmin   PageType = "admin"
	PageTypeAuth    PageType = "auth"
	PageTypeUnknown PageType = "unknown"
)

// TagUsage counts the occurrences of one tag in a document.
type TagUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DocumentInfo holds metadata about an Aeon document on disk.
type DocumentInfo struct {
	FileName          string     `json:"fileName"`
	FilePath          string     `json:"filePath"`
	RelativePath      string     `json:"relativePath"`
	AeonForm          string     `json:"aeonForm,omitempty"`
	DetectedType      PageType   `json:"detectedType"`
	HasCustomizations bool       `json:"hasCustomizations"`
	Tags              []TagUsage `json:"tags"`
	Includes          []string   `json:"includes"`
	Hash              string     `json:"hash"`
	LastMod           time.Time  `json:"lastModified"`
}

// EventType represents the type of document event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// DocumentEvent represents a change in the registry
type DocumentEvent struct {
	Type      EventType
	Document  *DocumentInfo
	Timestamp time.Time
}

// DocumentRegistry manages all discovered documents, keyed by absolute path.
type DocumentRegistry struct {
	documents map[string]*DocumentInfo
	mutex     sync.RWMutex
	watchers  []chan DocumentEvent
}

// NewDocumentRegistry creates an empty registry
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{
		documents: make(map[string]*DocumentInfo),
	}
}

// Register adds or updates a document. Re-registering an unchanged hash is a
// no-op and emits no event.
func (r *DocumentRegistry) Register(doc *DocumentInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if existing, exists := r.documents[doc.FilePath]; exists {
		if existing.Hash == doc.Hash {
			return
		}
		eventType = EventTypeUpdated
	}

	r.documents[doc.FilePath] = doc
	r.notify(DocumentEvent{Type: eventType, Document: doc, Timestamp: time.Now()})
}

// Get retrieves a document by path
func (r *DocumentRegistry) Get(path string) (*DocumentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	doc, exists := r.documents[path]
	return doc, exists
}

// All returns every registered document sorted by file name.
func (r *DocumentRegistry) All() []*DocumentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*DocumentInfo, 0, len(r.documents))
	for _, doc := range r.documents {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FileName == result[j].FileName {
			return result[i].FilePath < result[j].FilePath
		}
		return result[i].FileName < result[j].FileName
	})
	return result
}

// Remove removes a document from the registry
func (r *DocumentRegistry) Remove(path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	doc, exists := r.documents[path]
	if !exists {
		return
	}

	delete(r.documents, path)
	r.notify(DocumentEvent{Type: EventTypeRemoved, Document: doc, Timestamp: time.Now()})
}

// Dependents returns the documents that include the given file, matched by
// base name since includes are resolved against search paths at render time.
func (r *DocumentRegistry) Dependents(includePath string) []*DocumentInfo {
	name := filepath.Base(includePath)

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []*DocumentInfo
	for _, doc := range r.documents {
		for _, inc := range doc.Includes {
			if filepath.Base(inc) == name {
				out = append(out, doc)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out
}

// Watch returns a channel that receives document events
func (r *DocumentRegistry) Watch() <-chan DocumentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan DocumentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *DocumentRegistry) UnWatch(ch <-chan DocumentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered documents
func (r *DocumentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.documents)
}

// notify must be called with the mutex held.
func (r *DocumentRegistry) notify(event DocumentEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
