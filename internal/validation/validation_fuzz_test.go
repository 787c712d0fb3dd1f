package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FuzzWorkspaceDocument checks that no accepted path resolves outside the
// workspace root.
func FuzzWorkspaceDocument(f *testing.F) {
	f.Add("DefaultRequest.html")
	f.Add("forms/DefaultRequest.html")
	f.Add("../DefaultRequest.html")
	f.Add("forms/../../DefaultRequest.html")
	f.Add("/etc/passwd.html")
	f.Add("..\\..\\DefaultRequest.html")
	f.Add("forms/./DefaultRequest.HTML")
	f.Add("")

	root := f.TempDir()
	if err := os.WriteFile(filepath.Join(root, "DefaultRequest.html"), []byte("x"), 0o644); err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, rel string) {
		full, _, err := WorkspaceDocument(root, rel)
		if err != nil {
			return
		}
		inside, relErr := filepath.Rel(root, full)
		if relErr != nil || !IsWithin(inside) {
			t.Errorf("WorkspaceDocument accepted %q resolving outside the root: %s", rel, full)
		}
	})
}

// FuzzSanitizeInput checks that sanitized values carry no control
// characters other than tab, newline and carriage return.
func FuzzSanitizeInput(f *testing.F) {
	f.Add("Reading Room")
	f.Add("a\x00b")
	f.Add("\x1b[31mred")
	f.Add("line\r\nbreak")

	f.Fuzz(func(t *testing.T, input string) {
		out := SanitizeInput(input)
		for _, r := range out {
			if r < 32 && r != '\t' && r != '\n' && r != '\r' {
				t.Errorf("SanitizeInput(%q) kept control character %U", input, r)
			}
		}
		if strings.Contains(out, "\x00") {
			t.Errorf("SanitizeInput(%q) kept a NUL byte", input)
		}
	})
}
