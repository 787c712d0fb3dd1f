package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

// AeonError is a structured error type with context.
type AeonError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	FilePath    string
	Line        int
	Column      int
	Recoverable bool
}

// Error implements the error interface.
func (e *AeonError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *AeonError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *AeonError) Is(target error) bool {
	var t *AeonError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *AeonError) WithContext(key string, value interface{}) *AeonError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *AeonError) WithLocation(filePath string, line, column int) *AeonError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *AeonError {
	return &AeonError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *AeonError {
	return &AeonError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewParseError creates an error for documents the HTML tree builder rejects.
func NewParseError(code, message string, cause error) *AeonError {
	return &AeonError{
		Type:    ErrorTypeParse,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *AeonError {
	return &AeonError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates an error for a missing project, analysis or template.
func NewNotFoundError(code, message string) *AeonError {
	return &AeonError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ae *AeonError
	if errors.As(err, &ae) {
		return ae.Recoverable
	}

	return false
}

// IsNotFound reports whether err is a not-found AeonError.
func IsNotFound(err error) bool {
	var ae *AeonError
	if errors.As(err, &ae) {
		return ae.Type == ErrorTypeNotFound
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ae *AeonError
	if !errors.As(err, &ae) {
		h.logger.Error(ctx, err, "Command failed")
		return
	}

	fields := []interface{}{"type", ae.Type, "code", ae.Code}
	if ae.FilePath != "" {
		fields = append(fields, "file", ae.FilePath)
	}
	if IsRecoverable(err) {
		h.logger.Warn(ctx, err, "Command failed", fields...)
		return
	}
	h.logger.Error(ctx, err, "Command failed", fields...)
}

// Common error codes.
const (
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeTemplateNotFound = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeProjectNotFound  = "ERR_PROJECT_NOT_FOUND"
	ErrCodeAnalysisNotFound = "ERR_ANALYSIS_NOT_FOUND"
	ErrCodeProfileNotFound  = "ERR_PROFILE_NOT_FOUND"
	ErrCodeBuiltinProfile   = "ERR_BUILTIN_PROFILE"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeParseFailed      = "ERR_PARSE_FAILED"
	ErrCodePersistFailed    = "ERR_PERSIST_FAILED"
	ErrCodeInvalidSelection = "ERR_INVALID_SELECTION"
	ErrCodeInvalidProfile   = "ERR_INVALID_PROFILE"
	ErrCodeInvalidDocument  = "ERR_INVALID_DOCUMENT"
)

// Sentinels for errors.Is. Any AeonError with the same type and code matches.
var (
	ErrProjectNotFound  = NewNotFoundError(ErrCodeProjectNotFound, "migration project not found")
	ErrAnalysisNotFound = NewNotFoundError(ErrCodeAnalysisNotFound, "page analysis not found")
	ErrTemplateNotFound = NewNotFoundError(ErrCodeTemplateNotFound, "template not found")
	ErrProfileNotFound  = NewNotFoundError(ErrCodeProfileNotFound, "mock data profile not found")
	ErrBuiltinProfile   = NewValidationError(ErrCodeBuiltinProfile, "cannot delete built-in profile")
)
