package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>Request</title></head><body>
<div id="main" class="content wide">
  <h2>Item</h2>
  <form action="aeon.dll" method="post">
    <input type="hidden" name="AeonForm" value="EADRequest">
    <div class="form-row"><label for="ItemTitle">Title</label><input name="ItemTitle" value="<#PARAM name='ItemTitle'>"></div>
    <div class="form-row note"><select name="Format"></select></div>
  </form>
</div>
<p><#STATUS> ready</p>
</body></html>`

func parse(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Parse(content)
	require.NoError(t, err)
	return doc
}

func TestQueryAll(t *testing.T) {
	doc := parse(t, page)

	testCases := []struct {
		selector string
		count    int
	}{
		{"input", 2},
		{"input, select, textarea", 3},
		{"form input", 2},
		{"div.form-row", 2},
		{".note", 1},
		{"div.form-row.note", 1},
		{"#main", 1},
		{"div#main", 1},
		{"[for]", 1},
		{"input[name=AeonForm]", 1},
		{`input[name="ItemTitle"]`, 1},
		{"input[name=Missing]", 0},
		{"h2, h3", 1},
		{"table", 0},
		{"", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.selector, func(t *testing.T) {
			assert.Len(t, doc.QueryAll(tc.selector), tc.count)
		})
	}
}

func TestQueryAllDocumentOrderWithoutDuplicates(t *testing.T) {
	doc := parse(t, page)

	nodes := doc.QueryAll("select, input, div")
	var tags []string
	for _, n := range nodes {
		tags = append(tags, n.Data)
	}
	assert.Equal(t, []string{"div", "input", "div", "input", "div", "select"}, tags)
}

func TestQueryScopeAndInvalidSelectors(t *testing.T) {
	doc := parse(t, page)

	form := doc.First("form")
	require.NotNil(t, form)
	assert.Empty(t, QueryAll(form, "form"), "root is not its own descendant")
	assert.Len(t, QueryAll(form, "input"), 2)

	assert.Empty(t, doc.QueryAll("div["))
	assert.Nil(t, doc.First("div["))
	assert.False(t, Matches(form, "div["))
	assert.False(t, Matches(nil, "form"))
	assert.True(t, Matches(form, "form"))
}

func TestAeonTagsSurviveRoundTrip(t *testing.T) {
	doc := parse(t, page)

	input := doc.First(`input[name=ItemTitle]`)
	require.NotNil(t, input)
	assert.Equal(t, "<#PARAM name='ItemTitle'>", AttrOr(input, "value", ""))
	assert.Equal(t, "<#STATUS> ready", TrimmedText(doc.First("p")))

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, out, `value="<#PARAM name='ItemTitle'>"`)
	assert.Contains(t, out, "<p><#STATUS> ready</p>")
	assert.NotContains(t, out, "__aeon_")
}

func TestRestoreIsDeterministic(t *testing.T) {
	assert.Equal(t, protect(`<#PARAM name="A">`), protect(`<#PARAM name="A">`))
	assert.NotEqual(t, protect(`<#PARAM name="A">`), protect(`<#PARAM name="B">`))
	assert.Equal(t, `x <#USER field="Name"> y`, Restore(protect(`x <#USER field="Name"> y`)))
	assert.Equal(t, "plain", Restore("plain"))
}

func TestNavigation(t *testing.T) {
	doc := parse(t, page)

	sel := doc.First("select")
	row := Parent(sel)
	require.NotNil(t, row)
	assert.True(t, HasClass(row, "form-row"))
	assert.True(t, Matches(row, "div.note"))
	assert.Equal(t, 2, Index(row), "hidden input, first row, second row")
	assert.Equal(t, 1, SiblingIndex(row))

	form := Parent(row)
	assert.Len(t, Children(form), 3)
	assert.Equal(t, "div#main > form > div.form-row.note > select", ElementPath(sel))

	assert.Equal(t, "main", AttrOr(doc.ElementByID("main"), "id", ""))
	assert.Nil(t, doc.ElementByID("nope"))
	assert.Equal(t, []string{"content", "wide"}, Classes(doc.ElementByID("main")))
	assert.Equal(t, map[string]string{"for": "ItemTitle"}, Attributes(doc.First("label")))
}

func TestMutation(t *testing.T) {
	doc := parse(t, page)

	SetText(doc.First("label"), "Item title")
	SetAttr(doc.First("form"), "action", "aeon.dll?x")
	Detach(doc.First("div.note"))

	script := NewElement("script", "src", "app.js")
	doc.Head().AppendChild(script)
	doc.Body().AppendChild(NewComment(" migrated "))
	doc.Body().AppendChild(NewText("done"))

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, out, `<label for="ItemTitle">Item title</label>`)
	assert.Contains(t, out, `action="aeon.dll?x"`)
	assert.NotContains(t, out, `name="Format"`)
	assert.Contains(t, out, `<script src="app.js"></script></head>`)
	assert.Contains(t, out, "<!-- migrated -->done</body>")
}
