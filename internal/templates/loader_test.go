package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"DefaultRequest.html": {Data: []byte(`<form action="aeon.dll" method="post"><input type="hidden" name="AeonForm" value="EditItemRequest"></form>`)},
		"MainMenu.html":       {Data: []byte(`<form action="aeon.dll"><input name="x"></form>`)},
		"ViewHistory.html":    {Data: []byte(`<table></table>`)},
		"UsageReport.html":    {Data: []byte(`<p>report</p>`)},
		"Logon.html":          {Data: []byte(`<p>logon</p>`)},
		"notes.txt":           {Data: []byte("ignored")},

		"includes/include_header.html": {Data: []byte("<header></header>")},
		"includes/readme.md":           {Data: []byte("ignored")},
		"css/aeon.css":                 {Data: []byte("body{}")},
		"js/atlasUtility.js":           {Data: []byte("")},

		"features/billing/Index.cshtml":     {Data: []byte("@billing")},
		"features/duplication/Index.cshtml": {Data: []byte("@dup")},
	}
}

func TestManifest(t *testing.T) {
	l := NewLoaderFS(testFS(), "default", "6.0.20", nil)
	m, err := l.Manifest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "6.0.20", m.Version)
	assert.Equal(t, "Aeon 6.0.20 default pages", m.ReleaseNotes)
	assert.Equal(t, []string{"include_header.html"}, m.Includes)
	assert.Equal(t, []string{"css/aeon.css", "js/atlasUtility.js"}, m.Assets)

	byName := make(map[string]PageInfo)
	for _, p := range m.Pages {
		byName[p.FileName] = p
	}
	require.Len(t, byName, 5)

	request := byName["DefaultRequest.html"]
	assert.Equal(t, PageForm, request.Type)
	assert.Equal(t, "EditItemRequest", request.AeonForm)
	assert.Equal(t, "Default request form for general materials", request.Description)

	assert.Equal(t, PageForm, byName["MainMenu.html"].Type)
	assert.Equal(t, PageList, byName["ViewHistory.html"].Type)
	assert.Equal(t, PageReport, byName["UsageReport.html"].Type)
	assert.Equal(t, PageAdmin, byName["Logon.html"].Type)
	assert.Equal(t, "Aeon page: Logon.html", byName["Logon.html"].Description)
}

func TestManifestOverrides(t *testing.T) {
	fsys := testFS()
	fsys[ManifestFile] = &fstest.MapFile{Data: []byte(`version: "6.1.0"
releaseDate: "2024-01-01"
releaseNotes: Spring release
descriptions:
  Logon.html: Sign-in page
`)}

	m, err := NewLoaderFS(fsys, "default", "6.0.20", nil).Manifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "6.1.0", m.Version)
	assert.Equal(t, "Spring release", m.ReleaseNotes)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), m.ReleaseDate)

	for _, p := range m.Pages {
		if p.FileName == "Logon.html" {
			assert.Equal(t, "Sign-in page", p.Description)
		}
	}

	fsys[ManifestFile] = &fstest.MapFile{Data: []byte("version: [")}
	_, err = NewLoaderFS(fsys, "default", "6.0.20", nil).Manifest(context.Background())
	var ae *aeonerrors.AeonError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, aeonerrors.ErrorTypeParse, ae.Type)
	assert.Equal(t, "default/manifest.yaml", ae.FilePath)
}

func TestLoadTemplate(t *testing.T) {
	l := NewLoaderFS(testFS(), "default", "6.0.20", nil)

	content, err := l.LoadTemplate("ViewHistory.html")
	require.NoError(t, err)
	assert.Equal(t, "<table></table>", content)

	_, err = l.LoadTemplate("Missing.html")
	assert.True(t, errors.Is(err, aeonerrors.ErrTemplateNotFound))

	_, err = l.LoadTemplate("../secret.html")
	assert.True(t, errors.Is(err, aeonerrors.ErrTemplateNotFound))

	include, err := l.LoadInclude("include_header.html")
	require.NoError(t, err)
	assert.Equal(t, "<header></header>", include)

	asset, err := l.LoadAsset("css/aeon.css")
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(asset))

	_, err = l.LoadAsset("/etc/passwd")
	assert.True(t, errors.Is(err, aeonerrors.ErrTemplateNotFound))
}

func TestFeaturePackages(t *testing.T) {
	l := NewLoaderFS(testFS(), "default", "6.0.20", nil)
	assert.Equal(t, []string{"billing", "duplication"}, l.FeaturePackages())

	content, err := l.LoadFeaturePackage("billing")
	require.NoError(t, err)
	assert.Equal(t, "@billing", content)

	_, err = l.LoadFeaturePackage("missing")
	assert.True(t, errors.Is(err, aeonerrors.ErrTemplateNotFound))
	_, err = l.LoadFeaturePackage("billing/../duplication")
	assert.True(t, errors.Is(err, aeonerrors.ErrTemplateNotFound))
}

func TestLoaderOnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DefaultRequest.html"), []byte("<form></form>"), 0o644))

	l := NewLoader(dir, "", nil)
	assert.Equal(t, "Unknown", l.Version())
	assert.Empty(t, l.Includes())
	assert.Empty(t, l.Assets())
	assert.Empty(t, l.FeaturePackages())

	m, err := l.Manifest(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Pages, 1)

	_, err = NewLoader(filepath.Join(dir, "missing"), "6.0.20", nil).Manifest(context.Background())
	assert.Error(t, err)
}
