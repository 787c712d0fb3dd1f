package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/aeonkit/internal/dom"
)

func TestUnified(t *testing.T) {
	patch, err := Unified("a\nb\n", "a\nc\n")
	require.NoError(t, err)
	assert.Contains(t, patch, "--- page.html\tOld Version\n")
	assert.Contains(t, patch, "+++ page.html\tNew Version\n")
	assert.Contains(t, patch, "-b\n")
	assert.Contains(t, patch, "+c\n")
	assert.Contains(t, patch, " a\n")

	same, err := Unified("a\nb", "a\nb")
	require.NoError(t, err)
	assert.Empty(t, same)
}

func TestSideBySideDiff(t *testing.T) {
	result := SideBySideDiff("a\nb\nc", "a\nx\nc\nd")

	assert.Equal(t, []LineChange{
		{Type: Unchanged, Content: "a", LineNumbers: LineNumbers{Old: 1, New: 1}},
		{Type: Removed, Content: "b", LineNumbers: LineNumbers{Old: 2}},
		{Type: Added, Content: "x", LineNumbers: LineNumbers{New: 2}},
		{Type: Unchanged, Content: "c", LineNumbers: LineNumbers{Old: 3, New: 3}},
		{Type: Added, Content: "d", LineNumbers: LineNumbers{New: 4}},
	}, result.Changes)
	assert.Equal(t, "a\nb\nc", result.Old)
	assert.Equal(t, "a\nx\nc\nd", result.New)
}

func TestSideBySideKeepsBlankLines(t *testing.T) {
	result := SideBySideDiff("a\n\nb", "a\n\nb\nc")
	require.Len(t, result.Changes, 4)
	assert.Equal(t, LineChange{Type: Unchanged, Content: "", LineNumbers: LineNumbers{Old: 2, New: 2}}, result.Changes[1])
	assert.Equal(t, LineChange{Type: Added, Content: "c", LineNumbers: LineNumbers{New: 4}}, result.Changes[3])
}

func TestSideBySideEmptyInputs(t *testing.T) {
	result := SideBySideDiff("", "")
	assert.Empty(t, result.Changes)
	assert.Empty(t, result.Old)

	added := SideBySideDiff("", "one")
	assert.Equal(t, []LineChange{{Type: Added, Content: "one", LineNumbers: LineNumbers{New: 1}}}, added.Changes)
}

func TestRenderHTML(t *testing.T) {
	out := RenderHTML("<a>\n", "<a>\n</p>\n")
	assert.Equal(t,
		`<div class="diff-container">`+
			`<div class="diff-unchanged"><span class="diff-prefix"> </span>&lt;a&gt;</div>`+
			`<div class="diff-added"><span class="diff-prefix">+</span>&lt;&#x2F;p&gt;</div>`+
			`</div>`, out)

	removed := RenderHTML("it's\n", "")
	assert.Contains(t, removed, `<div class="diff-removed"><span class="diff-prefix">-</span>it&#x27;s</div>`)
}

func TestCompareStructure(t *testing.T) {
	oldDoc, err := dom.Parse(`<form><input name="A" type="text" maxlength="10"><input name="B"><select name="C"></select></form>`)
	require.NoError(t, err)
	newDoc, err := dom.Parse(`<form><input name="B"><input name="A" type="email" required><textarea name="D"></textarea></form>`)
	require.NoError(t, err)

	assert.Equal(t, []StructuralDiff{
		{Type: ElementRemoved, Element: "select", Details: `Field "C" was removed`},
		{Type: ElementAdded, Element: "textarea", Details: `Field "D" was added`},
		{Type: ElementMoved, Element: "input", Details: `Field "A" moved from position 0 to 1`},
		{Type: AttributeChanged, Element: "input", Details: `Field "A": attribute "type" changed from "text" to "email"`},
		{Type: AttributeChanged, Element: "input", Details: `Field "A": attribute "maxlength" was removed`},
		{Type: AttributeChanged, Element: "input", Details: `Field "A": attribute "required" was added with value ""`},
		{Type: ElementMoved, Element: "input", Details: `Field "B" moved from position 1 to 0`},
	}, CompareStructure(oldDoc, newDoc))
}

func TestCompareStructureIgnoresControlField(t *testing.T) {
	oldDoc, err := dom.Parse(`<form><input type="hidden" name="AeonForm" value="A"></form>`)
	require.NoError(t, err)
	newDoc, err := dom.Parse(`<form></form>`)
	require.NoError(t, err)
	assert.Empty(t, CompareStructure(oldDoc, newDoc))
}

func TestCompareStyles(t *testing.T) {
	oldDoc, err := dom.Parse(`<style>.a { color: red } .b { margin: 0 }</style><p style="x:1">p</p>`)
	require.NoError(t, err)
	newDoc, err := dom.Parse(`<style>.a { color: blue } .c { padding: 0 }</style>`)
	require.NoError(t, err)

	assert.Equal(t, []StyleChange{
		{Type: Modified, Content: ".a { color: blue }"},
		{Type: Removed, Content: ".b { margin: 0 }"},
		{Type: Removed, Content: "p[style]:nth-of-type(1) { x:1 }"},
		{Type: Added, Content: ".c { padding: 0 }"},
	}, CompareStyles(oldDoc, newDoc))
}

func TestCompare(t *testing.T) {
	visual, err := Compare(`<input name="A">`, `<input name="A">`+"\n"+`<input name="B">`)
	require.NoError(t, err)
	assert.Empty(t, visual.CSS)
	require.Len(t, visual.Structure, 1)
	assert.Equal(t, ElementAdded, visual.Structure[0].Type)
	require.NotEmpty(t, visual.HTML)
	assert.Equal(t, Added, visual.HTML[len(visual.HTML)-1].Type)
}
