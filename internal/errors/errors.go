package errors

import (
	"fmt"
	"sync"
)

// TagError is a recoverable failure attached to a single tag occurrence.
type TagError struct {
	Tag      string `json:"tag"`
	Message  string `json:"message"`
	Position int    `json:"position"`
}

// Error implements the error interface
func (te TagError) Error() string {
	return fmt.Sprintf("<#%s> at offset %d: %s", te.Tag, te.Position, te.Message)
}

// ErrorCollector collects tag errors in the order they were reported
type ErrorCollector struct {
	tagErrors []TagError
	mutex     sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		tagErrors: make([]TagError, 0),
	}
}

// Add appends a tag error to the collector
func (ec *ErrorCollector) Add(err TagError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.tagErrors = append(ec.tagErrors, err)
}

// GetErrors returns a copy of all collected tag errors
func (ec *ErrorCollector) GetErrors() []TagError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]TagError, len(ec.tagErrors))
	copy(result, ec.tagErrors)
	return result
}

// Len returns the number of collected errors
func (ec *ErrorCollector) Len() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.tagErrors)
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	return ec.Len() > 0
}
