// Package testutils holds fixture helpers shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/aeonkit/internal/config"
)

// CreateTempWorkspace creates a workspace with the directories aeonkit
// expects: includes, the default template set and the migration store.
func CreateTempWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	dirs := []string{
		"includes",
		"templates/default",
		".aeonkit/migrations",
	}
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755))
	}
	return root
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteTree writes each slash-separated relative path in files under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
}

// Chdir makes dir the working directory until the test ends.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
}

// CreateTestConfig returns a configuration rooted at root.
func CreateTestConfig(root string) *config.Config {
	return &config.Config{
		Preview: config.PreviewConfig{
			IncludeSearchPaths: []string{root, filepath.Join(root, "includes")},
			Profile:            "default",
		},
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8585,
		},
		Storage: config.StorageConfig{
			Dir: filepath.Join(root, ".aeonkit", "migrations"),
		},
		Templates: config.TemplatesConfig{
			Dir: filepath.Join(root, "templates", "default"),
		},
	}
}

// AssertFilePermissions checks the permission bits of a file.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode() & os.ModePerm
	require.Equal(t, expectedMode, actualMode,
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode, expectedMode)
}

// WaitForFileChange waits for a file to be modified after originalModTime.
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
