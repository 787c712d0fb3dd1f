// Package validation checks the paths, hosts and values that reach aeonkit
// from configuration files, HTTP requests and the command line.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
)

// Characters rejected in configured paths and hosts.
var (
	pathDangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	hostDangerousChars = append(append([]string{}, pathDangerousChars...), "\\")
)

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// DocumentExtensions are the files the preview server renders.
var DocumentExtensions = []string{".html", ".htm"}

// ValidatePath rejects empty paths, paths that climb out of their base
// and paths with shell metacharacters.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	for _, char := range pathDangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}
	return nil
}

// ContainsDangerousHostChars reports the first shell metacharacter in host.
func ContainsDangerousHostChars(host string) (string, bool) {
	for _, char := range hostDangerousChars {
		if strings.Contains(host, char) {
			return char, true
		}
	}
	return "", false
}

// ValidateHost accepts localhost, IP addresses and RFC 1123 host names.
func ValidateHost(host string) error {
	if char, ok := ContainsDangerousHostChars(host); ok {
		return fmt.Errorf("contains dangerous character: %s", char)
	}
	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}
	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}
	return nil
}

// ParseOrigin parses an Origin header value. Only http and https origins
// are accepted.
func ParseOrigin(origin string) (*url.URL, error) {
	if origin == "" {
		return nil, fmt.Errorf("origin header is required")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("origin has no host")
	}
	return u, nil
}

// OriginAllowed reports whether origin matches one of allowed exactly,
// ignoring a trailing slash on either side.
func OriginAllowed(origin string, allowed []string) bool {
	origin = strings.TrimSuffix(origin, "/")
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if strings.TrimSuffix(a, "/") == origin {
			return true
		}
	}
	return false
}

// ValidateFileExtension checks filename against an allowlist, ignoring
// case.
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}
	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return fmt.Errorf("file extension '%s' is not allowed", ext)
}

// WorkspaceDocument resolves rel, a slash-separated path relative to root,
// to an existing document inside root. It returns the full path and the
// cleaned relative path. Invalid paths yield validation errors, missing
// files not-found errors.
func WorkspaceDocument(root, rel string) (string, string, error) {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if rel == "" {
		return "", "", aeonerrors.NewValidationError(aeonerrors.ErrCodeInvalidDocument, "document path is empty")
	}
	if err := ValidateFileExtension(rel, DocumentExtensions); err != nil {
		return "", "", aeonerrors.NewValidationError(aeonerrors.ErrCodeInvalidDocument,
			"only .html documents can be previewed")
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	inside, err := filepath.Rel(root, full)
	if err != nil || !IsWithin(inside) {
		return "", "", aeonerrors.NewValidationError(aeonerrors.ErrCodeInvalidDocument,
			"document is outside the workspace")
	}

	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return "", "", aeonerrors.NewNotFoundError(aeonerrors.ErrCodeFileNotFound, "document not found: "+rel)
		}
		return "", "", aeonerrors.NewIOError(aeonerrors.ErrCodeFileNotFound, "cannot stat "+rel, err)
	}
	return full, filepath.ToSlash(inside), nil
}

// IsWithin reports whether rel, the result of filepath.Rel, stays inside
// its base directory.
func IsWithin(rel string) bool {
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// SanitizeInput drops NUL bytes and control characters other than tab,
// newline and carriage return.
func SanitizeInput(input string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(input))
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String()
}
