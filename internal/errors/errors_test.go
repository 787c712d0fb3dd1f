package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagErrorError(t *testing.T) {
	err := TagError{Tag: "PARAM", Message: "Missing required attribute: name", Position: 12}

	msg := err.Error()
	assert.Contains(t, msg, "<#PARAM>")
	assert.Contains(t, msg, "12")
	assert.Contains(t, msg, "Missing required attribute: name")
}

func TestNewErrorCollector(t *testing.T) {
	collector := NewErrorCollector()

	assert.NotNil(t, collector)
	assert.Empty(t, collector.GetErrors())
	assert.False(t, collector.HasErrors())
}

func TestErrorCollectorPreservesOrder(t *testing.T) {
	collector := NewErrorCollector()
	collector.Add(TagError{Tag: "PARAM", Message: "first"})
	collector.Add(TagError{Tag: "INCLUDE", Message: "File not found: header.html", Position: 40})
	collector.Add(TagError{Tag: "PARAM", Message: "third"})

	all := collector.GetErrors()
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Message)
	assert.Equal(t, "File not found: header.html", all[1].Message)
	assert.Equal(t, 40, all[1].Position)
	assert.Equal(t, "third", all[2].Message)
	assert.Equal(t, 3, collector.Len())
}

func TestErrorCollectorCopyIsIndependent(t *testing.T) {
	collector := NewErrorCollector()
	collector.Add(TagError{Tag: "USER", Message: "Missing required attribute: field"})

	snapshot := collector.GetErrors()
	snapshot[0].Message = "mutated"

	assert.Equal(t, "Missing required attribute: field", collector.GetErrors()[0].Message)
}

func TestAeonErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := NewIOError(ErrCodePersistFailed, "failed to save migration project", cause).
		WithLocation("projects/abc.json", 0, 0)

	assert.Equal(t, "[ERR_PERSIST_FAILED] projects/abc.json failed to save migration project: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsRecoverable(err))
}

func TestAeonErrorIs(t *testing.T) {
	err := NewNotFoundError(ErrCodeProjectNotFound, "project not found: x")
	wrapped := fmt.Errorf("loading: %w", err)

	assert.True(t, errors.Is(wrapped, NewNotFoundError(ErrCodeProjectNotFound, "")))
	assert.False(t, errors.Is(wrapped, NewNotFoundError(ErrCodeAnalysisNotFound, "")))
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsRecoverable(wrapped))
}

func TestAeonErrorWithContext(t *testing.T) {
	err := NewValidationError(ErrCodeInvalidSelection, "unknown customization").
		WithContext("id", "content-f")

	assert.Equal(t, "content-f", err.Context["id"])
}

func TestSentinels(t *testing.T) {
	err := fmt.Errorf("load: %w", NewNotFoundError(ErrCodeTemplateNotFound, "template not found: DefaultRequest.html"))

	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.NotErrorIs(t, err, ErrProjectNotFound)
	assert.ErrorIs(t, NewValidationError(ErrCodeBuiltinProfile, "cannot delete built-in profile: default"), ErrBuiltinProfile)
}

type recordedLog struct {
	level  string
	err    error
	fields []interface{}
}

type recordingLogger struct {
	entries []recordedLog
}

func (l *recordingLogger) Warn(_ context.Context, err error, _ string, fields ...interface{}) {
	l.entries = append(l.entries, recordedLog{level: "warn", err: err, fields: fields})
}

func (l *recordingLogger) Error(_ context.Context, err error, _ string, fields ...interface{}) {
	l.entries = append(l.entries, recordedLog{level: "error", err: err, fields: fields})
}

func TestErrorHandlerLevels(t *testing.T) {
	testCases := []struct {
		name  string
		err   error
		level string
	}{
		{"validation", NewValidationError(ErrCodeInvalidSelection, "unknown customization"), "warn"},
		{"not found", fmt.Errorf("load: %w", NewNotFoundError(ErrCodeProjectNotFound, "project not found")), "warn"},
		{"io", NewIOError(ErrCodePersistFailed, "failed to save", errors.New("disk full")), "error"},
		{"plain", errors.New("boom"), "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger := &recordingLogger{}
			NewErrorHandler(logger).Handle(context.Background(), tc.err)

			require.Len(t, logger.entries, 1)
			assert.Equal(t, tc.level, logger.entries[0].level)
			assert.Equal(t, tc.err, logger.entries[0].err)
		})
	}
}

func TestErrorHandlerReportsLocation(t *testing.T) {
	logger := &recordingLogger{}
	err := NewParseError(ErrCodeParseFailed, "invalid template manifest", errors.New("bad yaml")).
		WithLocation("templates/default/manifest.yaml", 0, 0)

	NewErrorHandler(logger).Handle(context.Background(), err)

	require.Len(t, logger.entries, 1)
	assert.Contains(t, logger.entries[0].fields, "templates/default/manifest.yaml")

	NewErrorHandler(nil).Handle(context.Background(), err)
	NewErrorHandler(logger).Handle(context.Background(), nil)
	assert.Len(t, logger.entries, 1)
}
