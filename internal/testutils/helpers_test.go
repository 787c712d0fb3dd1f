package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTempWorkspace(t *testing.T) {
	root := CreateTempWorkspace(t)

	for _, dir := range []string{"includes", "templates/default", ".aeonkit/migrations"} {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(dir)))
		require.NoError(t, err)
		assert.True(t, info.IsDir(), "Expected %s to be a directory", dir)
	}
}

func TestWriteTree(t *testing.T) {
	root := t.TempDir()
	WriteTree(t, root, map[string]string{
		"DefaultRequest.html":  "<form></form>",
		"includes/footer.html": "<footer></footer>",
	})

	content, err := os.ReadFile(filepath.Join(root, "includes", "footer.html"))
	require.NoError(t, err)
	assert.Equal(t, "<footer></footer>", string(content))
	AssertFilePermissions(t, filepath.Join(root, "DefaultRequest.html"), 0o644)
}

func TestChdir(t *testing.T) {
	before, err := os.Getwd()
	require.NoError(t, err)

	t.Run("inside", func(t *testing.T) {
		dir := t.TempDir()
		Chdir(t, dir)
		wd, err := os.Getwd()
		require.NoError(t, err)

		want, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		got, err := filepath.EvalSymlinks(wd)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCreateTestConfig(t *testing.T) {
	root := t.TempDir()
	cfg := CreateTestConfig(root)

	assert.Equal(t, "default", cfg.Preview.Profile)
	assert.Equal(t, filepath.Join(root, "includes"), cfg.Preview.IncludeSearchPaths[1])
	assert.Equal(t, filepath.Join(root, ".aeonkit", "migrations"), cfg.Storage.Dir)
	assert.Equal(t, filepath.Join(root, "templates", "default"), cfg.Templates.Dir)
}

func TestWaitForFileChange(t *testing.T) {
	path := WriteFile(t, filepath.Join(t.TempDir(), "page.html"), "old")
	info, err := os.Stat(path)
	require.NoError(t, err)
	original := info.ModTime()

	go func() {
		time.Sleep(50 * time.Millisecond)
		later := original.Add(time.Second)
		_ = os.Chtimes(path, later, later)
	}()

	WaitForFileChange(t, path, original, time.Second)
}
