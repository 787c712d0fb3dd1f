package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/aeonkit/internal/dom"
)

type templateMap map[string]string

func (m templateMap) LoadTemplate(name string) (string, error) {
	content, ok := m[name]
	if !ok {
		return "", errors.New("template not found")
	}
	return content, nil
}

func compare(t *testing.T, oldContent, newContent string) *PageAnalysis {
	t.Helper()
	a := New(nil, nil)
	a.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	analysis, err := a.Compare(context.Background(), oldContent, newContent, "DefaultRequest.html")
	require.NoError(t, err)
	return analysis
}

func TestLabelDiffPrecision(t *testing.T) {
	analysis := compare(t, `<label for="f">Old</label>`, `<label for="f">New</label>`)
	assert.Equal(t, []ContentChange{{
		Type:        ContentLabel,
		Location:    "f",
		OldValue:    "Old",
		NewValue:    "New",
		ElementPath: "label",
	}}, analysis.Customizations.Content)

	same := compare(t, `<label for="f">Same</label>`, `<label for="f"> Same </label>`)
	assert.Empty(t, same.Customizations.Content)

	unmatched := compare(t, `<label for="f">Old</label>`, `<label for="g">New</label>`)
	assert.Empty(t, unmatched.Customizations.Content)
}

func TestStructuralMoveDetection(t *testing.T) {
	analysis := compare(t,
		`<form><section><h2>Contact</h2><input name="Email"></section></form>`,
		`<form><section><h2>Details</h2><input name="Email"></section></form>`)

	require.Len(t, analysis.Customizations.Structure, 1)
	change := analysis.Customizations.Structure[0]
	assert.Equal(t, FieldMoved, change.Type)
	assert.Equal(t, "Email", change.FieldID)
	require.NotNil(t, change.OldPosition)
	require.NotNil(t, change.NewPosition)
	assert.Equal(t, Position{Section: "Contact", Index: 0}, *change.OldPosition)
	assert.Equal(t, Position{Section: "Details", Index: 0}, *change.NewPosition)
	assert.Empty(t, analysis.Customizations.Content, "section headings are tracked structurally")

	unchanged := compare(t,
		`<form><h2>Contact</h2><input name="Email"></form>`,
		`<form><h2>Contact</h2><input name="Email"></form>`)
	assert.Empty(t, unchanged.Customizations.Structure)
}

func TestEndToEndMovedField(t *testing.T) {
	template := `<form action="aeon.dll" method="post"><input type="hidden" name="AeonForm" value="X"><input name="Foo"></form>`
	old := `<form action="aeon.dll" method="post"><input type="hidden" name="AeonForm" value="X"><h2>Extra</h2><input name="Foo"></form>`

	a := New(templateMap{"DefaultRequest.html": template}, nil)
	analysis, err := a.Analyze(context.Background(), old, "DefaultRequest.html")
	require.NoError(t, err)

	require.Len(t, analysis.Customizations.Structure, 1)
	change := analysis.Customizations.Structure[0]
	assert.Equal(t, FieldMoved, change.Type)
	assert.Equal(t, "Foo", change.FieldID)
	assert.Equal(t, "Extra", change.OldPosition.Section)
	assert.Equal(t, "main", change.NewPosition.Section)
	assert.Equal(t, 1, change.OldPosition.Index)

	assert.Empty(t, analysis.Customizations.Content)
	assert.Empty(t, analysis.Customizations.JavaScript)
	assert.Equal(t, "DefaultRequest.html", analysis.OriginalPage)
	assert.Equal(t, []string{"structure-Foo"}, analysis.IDs())
}

func TestAnalyzeMissingTemplate(t *testing.T) {
	a := New(templateMap{}, nil)
	_, err := a.Analyze(context.Background(), "<p></p>", "Nope.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nope.html")

	_, err = New(nil, nil).Analyze(context.Background(), "<p></p>", "x.html")
	assert.Error(t, err)
}

func TestCompareHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, nil).Compare(ctx, "", "", "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddedAndRemovedFields(t *testing.T) {
	analysis := compare(t,
		`<form><input name="A"><input name="B"></form>`,
		`<form><input name="C"><input name="B"></form>`)

	require.Len(t, analysis.Customizations.Structure, 2)
	removed, added := analysis.Customizations.Structure[0], analysis.Customizations.Structure[1]

	assert.Equal(t, FieldRemoved, removed.Type)
	assert.Equal(t, "A", removed.FieldName)
	assert.NotNil(t, removed.OldPosition)
	assert.Nil(t, removed.NewPosition)

	assert.Equal(t, FieldAdded, added.Type)
	assert.Equal(t, "C", added.FieldName)
	assert.Nil(t, added.OldPosition)
	assert.NotNil(t, added.NewPosition)
}

func TestExtractFields(t *testing.T) {
	doc, err := dom.Parse(`<form>
<input type="hidden" name="AeonForm" value="X">
<input type="submit">
<div class="row"><label>a</label></div>
<div class="row"><input name="Title"></div>
<input type="radio" name="Choice" value="1"><input type="radio" name="Choice" value="2">
</form>`)
	require.NoError(t, err)

	fields := ExtractFields(doc)
	assert.Equal(t, []string{"Title", "Choice"}, fields.Names())
	assert.Equal(t, 2, fields.Len())

	title, ok := fields.Get("Title")
	require.True(t, ok)
	assert.Equal(t, Position{Section: "main", Index: 2, Row: 3}, title.Position)

	choice, _ := fields.Get("Choice")
	assert.Equal(t, 4, choice.Position.Index, "the last element of a group wins")
}

func TestContentPlaceholders(t *testing.T) {
	old := `<html><body>
<h1>Custom Request Form</h1>
<h3>Shipping</h3>
<p>This paragraph has been customized by the library staff.</p>
<p>Short one.</p>
<ul><li>One</li><li>Two</li></ul>
<table><tr><th>Name</th></tr><tr><td>A long description of the item requested</td></tr></table>
<div class="small-notes" id="titleHelp">Enter the full title of the item here.</div>
<blockquote>Quoted</blockquote>
<div id="intro">Welcome to special collections, please read our access policies first.</div>
</body></html>`
	newContent := `<html><body><h1>Request Form</h1><h3>Shipping</h3></body></html>`

	analysis := compare(t, old, newContent)

	byLocation := make(map[string]ContentChange)
	for _, c := range analysis.Customizations.Content {
		byLocation[c.Location] = c
	}

	title := byLocation["page-title"]
	assert.Equal(t, ContentText, title.Type)
	assert.Equal(t, "Custom Request Form", title.OldValue)
	assert.Equal(t, "Request Form", title.NewValue)
	assert.False(t, title.NeedsManualCheck())

	assert.NotContains(t, byLocation, "h3-0", "identical headings are not reported")

	paragraph := byLocation["paragraph-0"]
	assert.Equal(t, ContentParagraph, paragraph.Type)
	assert.True(t, paragraph.NeedsManualCheck())
	assert.NotContains(t, byLocation, "paragraph-1")

	assert.Equal(t, "One\n• Two", byLocation["list-0"].OldValue)
	assert.Equal(t, "Name: A long description of the item requested", byLocation["table-0-row-1-cell-0"].OldValue)
	assert.Equal(t, ContentHelp, byLocation["titleHelp"].Type)
	assert.Equal(t, ContentBlockquote, byLocation["blockquote-0"].Type)
	assert.Equal(t, ContentBlock, byLocation["intro"].Type)
	assert.Equal(t, "div#intro", byLocation["intro"].ElementPath)
	assert.Equal(t, "content-intro", byLocation["intro"].ID())

	assert.Len(t, analysis.Customizations.Content, 7)
}

func TestScriptChanges(t *testing.T) {
	old := `<html><head>
<script src="analytics.js"></script>
<script src="shared.js"></script>
<script>document.getElementById('x').style.display = 'none'; toggle();</script>
<script>  keep();  </script>
</head><body><button id="go" onclick="validate()">Go</button><select onchange="load()"></select></body></html>`
	newContent := `<html><head><script src="shared.js"></script><script>keep();</script></head><body></body></html>`

	changes := compare(t, old, newContent).Customizations.JavaScript
	require.Len(t, changes, 4)

	assert.Equal(t, ScriptChange{
		Type:     ScriptExternal,
		Content:  "analytics.js",
		Location: "head/body",
		Purpose:  "Analytics tracking",
	}, changes[0])

	assert.Equal(t, ScriptInline, changes[1].Type)
	assert.Equal(t, "head", changes[1].Location)
	assert.Equal(t, "UI interaction/toggle", changes[1].Purpose)
	assert.Equal(t, "document.querySelector('#x').style.display = 'none'; toggle();", changes[1].SuggestedRewrite)
	assert.Equal(t, "javascript-head", changes[1].ID())

	assert.Equal(t, ScriptEventHandler, changes[2].Type)
	assert.Equal(t, "button#go", changes[2].Location)
	assert.Equal(t, "Form validation", changes[2].Purpose)
	assert.Equal(t, "element.addEventListener('click', function(e) { validate() });", changes[2].SuggestedRewrite)

	assert.Equal(t, "select#unknown", changes[3].Location)
	assert.Equal(t, "element.addEventListener('change', function(e) { load() });", changes[3].SuggestedRewrite)
}

func TestScriptPurpose(t *testing.T) {
	testCases := []struct {
		src, content, expected string
	}{
		{"js/analytics.js", "", "Analytics tracking"},
		{"", "gtag('config')", "Analytics tracking"},
		{"", "if (!validate(form)) return false;", "Form validation"},
		{"", "el.hide()", "UI interaction/toggle"},
		{"", "fetch('/api')", "AJAX/Dynamic content loading"},
		{"", "document.cookie = 'a=b'", "Cookie management"},
		{"", "console.log(1)", "Custom functionality"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, ScriptPurpose(tc.src, tc.content))
		})
	}
}

func TestDetectVersion(t *testing.T) {
	testCases := []struct {
		content  string
		expected string
	}{
		{"<!-- Aeon 5.1 -->", "5.1"},
		{"Powered by Aeon v3.0.1", "3.0.1"},
		{"<meta name=x content='Version: 4.2'>", "4.2"},
		{`<select name="CustomDropDown">`, "5.0+"},
		{"<p>nothing</p>", "Unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectVersion(tc.content))
		})
	}
}

func TestDetectFeatures(t *testing.T) {
	doc, err := dom.Parse(`<input name="ScheduledDate"><div class="billing-section"></div><select name="CustomDropDown"></select>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"scheduled-retrieval", "custom-dropdowns", "billing"}, DetectFeatures(doc))

	empty, err := dom.Parse("<p></p>")
	require.NoError(t, err)
	assert.Empty(t, DetectFeatures(empty))
	assert.NotNil(t, DetectFeatures(empty))
}
