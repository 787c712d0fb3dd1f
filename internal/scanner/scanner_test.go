package scanner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/aeonkit/internal/registry"
	"github.com/conneroisu/aeonkit/internal/testutils"
)

func TestParseAttributes(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		keys     []string
		expected map[string]string
	}{
		{
			name:     "double quoted",
			raw:      ` name="TransactionNumber"`,
			keys:     []string{"name"},
			expected: map[string]string{"name": "TransactionNumber"},
		},
		{
			name:     "single quoted and mixed case",
			raw:      ` Name='Department' selectedValue="Art"`,
			keys:     []string{"name", "selectedvalue"},
			expected: map[string]string{"name": "Department", "selectedvalue": "Art"},
		},
		{
			name:     "bare word",
			raw:      ` name="ForPublication" default`,
			keys:     []string{"name", "default"},
			expected: map[string]string{"name": "ForPublication", "default": "true"},
		},
		{
			name:     "empty value",
			raw:      ` defaultValue=""`,
			keys:     []string{"defaultvalue"},
			expected: map[string]string{"defaultvalue": ""},
		},
		{
			name:     "quote of other kind inside value",
			raw:      ` test="RequestType='Loan'"`,
			keys:     []string{"test"},
			expected: map[string]string{"test": "RequestType='Loan'"},
		},
		{
			name:     "garbage is skipped",
			raw:      ` = "" !!`,
			keys:     []string{},
			expected: map[string]string{},
		},
		{
			name:     "repeated name keeps last value",
			raw:      ` name="a" name="b"`,
			keys:     []string{"name"},
			expected: map[string]string{"name": "b"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			attrs := ParseAttributes(tc.raw)
			assert.Equal(t, tc.expected, attrs.Map())
			assert.Equal(t, tc.keys, attrs.Keys())
		})
	}
}

func TestAttributesAccessors(t *testing.T) {
	attrs := ParseAttributes(`name="X" empty=""`)

	assert.Equal(t, "X", attrs.Get("NAME"))
	assert.True(t, attrs.Has("empty"))
	assert.Equal(t, "fallback", attrs.GetOr("empty", "fallback"))
	assert.Equal(t, "fallback", attrs.GetOr("missing", "fallback"))

	_, ok := attrs.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, attrs.Len())

	var zero Attributes
	assert.Equal(t, "", zero.Get("name"))
	assert.Equal(t, 0, zero.Len())
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		marker   string
		expected Context
	}{
		{"no markup", "<#PARAM>", "<#PARAM", ContextNormal},
		{"element text", `<div><#PARAM name="X"></div>`, "<#PARAM", ContextNormal},
		{"double quoted value", `<input value="<#PARAM name='X'>">`, "<#PARAM", ContextAttribute},
		{"single quoted value", `<input value='<#PARAM name="X">'>`, "<#PARAM", ContextAttribute},
		{"bare attribute position", `<input type="checkbox" <#CHECKED name="X">>`, "<#CHECKED", ContextAttribute},
		{"inside textarea", `<textarea name="Notes"><#PARAM name="Notes"></textarea>`, "<#PARAM", ContextTextarea},
		{"after closed textarea", `<textarea></textarea><p><#PARAM name="X"></p>`, "<#PARAM", ContextNormal},
		{"textarea open tag itself", `<textarea placeholder="<#PARAM name='X'>">`, "<#PARAM", ContextTextarea},
		{"unclosed lt in text", `a < b <#PARAM name="X">`, "<#PARAM", ContextAttribute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pos := indexOf(t, tc.content, tc.marker)
			assert.Equal(t, tc.expected, Classify(tc.content, pos))
		})
	}
}

func TestClassifyOutOfRange(t *testing.T) {
	assert.Equal(t, ContextNormal, Classify("abc", -5))
	assert.Equal(t, ContextNormal, Classify("abc", 100))
	assert.Equal(t, "textarea", ContextTextarea.String())
}

func TestFindTags(t *testing.T) {
	content := `<p><#param name="A"></p><#STATUS><#Include filename='x.html'>`

	occs := FindTags(content)
	require.Len(t, occs, 3)

	assert.Equal(t, "PARAM", occs[0].Name)
	assert.Equal(t, ` name="A"`, occs[0].RawAttributes)
	assert.Equal(t, `<#param name="A">`, occs[0].Text)
	assert.Equal(t, 3, occs[0].Start)
	assert.Equal(t, content[occs[0].Start:occs[0].End], occs[0].Text)

	assert.Equal(t, "STATUS", occs[1].Name)
	assert.Equal(t, "", occs[1].RawAttributes)

	assert.Equal(t, "INCLUDE", occs[2].Name)
	assert.Equal(t, "x.html", occs[2].Attributes().Get("filename"))

	assert.True(t, occs[0].Start < occs[1].Start && occs[1].Start < occs[2].Start)
	assert.Nil(t, FindTags("<div>plain</div>"))
	assert.False(t, HasTags("<# >"))
	assert.True(t, HasTags("<#X>"))
}

func TestPositionAt(t *testing.T) {
	content := "line one\n  <#PARAM>\nthird"

	assert.Equal(t, Position{Line: 1, Column: 1}, PositionAt(content, 0))
	assert.Equal(t, Position{Line: 2, Column: 3}, PositionAt(content, indexOf(t, content, "<#PARAM")))
	assert.Equal(t, Position{Line: 3, Column: 1}, PositionAt(content, indexOf(t, content, "third")))
}

func TestPageHeuristics(t *testing.T) {
	page := `<form action="aeon.dll"><input type="hidden" name="AeonForm" value="EditPhotoduplicationRequest"></form>`

	assert.True(t, IsAeonPage(page))
	assert.False(t, IsAeonPage("<html></html>"))
	assert.Equal(t, "EditPhotoduplicationRequest", ExtractAeonForm(page))
	assert.Equal(t, "", ExtractAeonForm("<html></html>"))

	assert.Equal(t, registry.PageTypeRequest, DetectPageType("PhotoduplicationRequest.html", ""))
	assert.Equal(t, registry.PageTypeRequest, DetectPageType("ViewOutstandingRequests.html", ""))
	assert.Equal(t, registry.PageTypeView, DetectPageType("ViewHistory.html", ""))
	assert.Equal(t, registry.PageTypeAuth, DetectPageType("Logon.html", ""))
	assert.Equal(t, registry.PageTypeAdmin, DetectPageType("ManageAccount.html", ""))
	assert.Equal(t, registry.PageTypeUnknown, DetectPageType("About.html", ""))

	assert.True(t, DetectCustomizations(`<link href="css/custom.css">`))
	assert.True(t, DetectCustomizations("<!-- Custom header -->"))
	assert.False(t, DetectCustomizations("<p>plain</p>"))
}

func TestTagUsageAndIncludes(t *testing.T) {
	content := `<#INCLUDE filename="include_header.html"><#PARAM name="A"><#param name="B">` +
		`<#INCLUDE filename="include_header.html"><#INCLUDE type="RequestButtons">`

	assert.Equal(t, []registry.TagUsage{
		{Name: "INCLUDE", Count: 3},
		{Name: "PARAM", Count: 2},
	}, TagUsage(content))
	assert.Equal(t, []string{"include_header.html"}, IncludedFiles(content))
}

func TestFindBestTemplateMatch(t *testing.T) {
	templates := []string{"DefaultRequest.html", "EditPhotoduplicationRequest.html", "ViewAllRequests.html"}

	assert.Equal(t, "DefaultRequest.html", FindBestTemplateMatch("defaultrequest.html", templates))
	assert.Equal(t, "DefaultRequest.html", FindBestTemplateMatch("DefaultRequest", templates))
	assert.Equal(t, "EditPhotoduplicationRequest.html", FindBestTemplateMatch("EditPhotoduplicationRequest.htm", templates[1:2]))
	assert.Equal(t, "", FindBestTemplateMatch("Unrelated.html", templates))
}

func TestWorkspaceScan(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "DefaultRequest.html"), `<form action="aeon.dll"><#PARAM name="A"></form>`)
	testutils.WriteFile(t, filepath.Join(root, "includes", "include_header.html"), `<#INCLUDE filename="include_menu.html">`)
	testutils.WriteFile(t, filepath.Join(root, "plain.html"), `<p>nothing</p>`)
	testutils.WriteFile(t, filepath.Join(root, "node_modules", "x.html"), `<#INCLUDE filename="y.html">`)
	testutils.WriteFile(t, filepath.Join(root, "notes.txt"), `aeon.dll`)

	reg := registry.NewDocumentRegistry()
	scanner := NewWorkspaceScanner(root, reg, nil)

	pages, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "DefaultRequest.html", pages[0].FileName)
	assert.Equal(t, registry.PageTypeRequest, pages[0].DetectedType)
	assert.NotEmpty(t, pages[0].Hash)
	assert.Equal(t, "include_header.html", pages[1].FileName)
	assert.Equal(t, "includes/include_header.html", pages[1].RelativePath)
	assert.Equal(t, []string{"include_menu.html"}, pages[1].Includes)

	assert.Equal(t, 2, reg.Count())
	assert.Same(t, scanner.Registry(), reg)
}

func TestWorkspaceScanCancelled(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFile(t, filepath.Join(root, "a.html"), `<#STATUS>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWorkspaceScanner(root, nil, nil).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	t.Fatalf("%q not found in %q", sub, s)
	return -1
}
