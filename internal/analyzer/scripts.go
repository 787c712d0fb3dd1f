package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conneroisu/aeonkit/internal/dom"
)

var eventAttributes = []string{"onclick", "onchange", "onsubmit"}

// detectScriptChanges reports old scripts with no equivalent in the new
// template, then every inline event handler of the old page.
func detectScriptChanges(oldDoc, newDoc *dom.Document) []ScriptChange {
	newSrc := make(map[string]bool)
	newInline := make(map[string]bool)
	for _, s := range newDoc.QueryAll("script") {
		if src, ok := dom.Attr(s, "src"); ok {
			newSrc[src] = true
		} else {
			newInline[strings.TrimSpace(dom.Text(s))] = true
		}
	}

	var changes []ScriptChange
	for _, s := range oldDoc.QueryAll("script") {
		if src, ok := dom.Attr(s, "src"); ok {
			if newSrc[src] {
				continue
			}
			changes = append(changes, ScriptChange{
				Type:     ScriptExternal,
				Content:  src,
				Location: "head/body",
				Purpose:  ScriptPurpose(src, ""),
			})
			continue
		}

		content := dom.Text(s)
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || newInline[trimmed] {
			continue
		}
		location := "unknown"
		if p := dom.Parent(s); p != nil {
			location = p.Data
		}
		changes = append(changes, ScriptChange{
			Type:             ScriptInline,
			Content:          content,
			Location:         location,
			Purpose:          ScriptPurpose("", content),
			SuggestedRewrite: SuggestRewrite(content),
		})
	}

	for _, el := range oldDoc.QueryAll("[onclick], [onchange], [onsubmit]") {
		for _, event := range eventAttributes {
			handler, ok := dom.Attr(el, event)
			if !ok || handler == "" {
				continue
			}
			changes = append(changes, ScriptChange{
				Type:             ScriptEventHandler,
				Content:          handler,
				Location:         el.Data + "#" + dom.AttrOr(el, "id", "unknown"),
				Purpose:          ScriptPurpose("", handler),
				SuggestedRewrite: SuggestListener(event, handler),
			})
		}
	}

	return changes
}

// ScriptPurpose guesses what a script is for from its src and content.
func ScriptPurpose(src, content string) string {
	switch {
	case strings.Contains(src, "analytics") || strings.Contains(content, "ga(") || strings.Contains(content, "gtag("):
		return "Analytics tracking"
	case strings.Contains(content, "validate") || strings.Contains(content, "required"):
		return "Form validation"
	case strings.Contains(content, "toggle") || strings.Contains(content, "hide") || strings.Contains(content, "show"):
		return "UI interaction/toggle"
	case strings.Contains(content, "ajax") || strings.Contains(content, "fetch") || strings.Contains(content, "XMLHttpRequest"):
		return "AJAX/Dynamic content loading"
	case strings.Contains(content, "cookie"):
		return "Cookie management"
	default:
		return "Custom functionality"
	}
}

var getElementByID = regexp.MustCompile(`document\.getElementById\(['"]([^'"]+)['"]\)`)

// SuggestRewrite replaces getElementById lookups with querySelector. Other
// scripts are returned unchanged.
func SuggestRewrite(script string) string {
	return getElementByID.ReplaceAllString(script, "document.querySelector('#$1')")
}

// SuggestListener lifts an inline on* handler into an addEventListener call.
func SuggestListener(event, handler string) string {
	return fmt.Sprintf("element.addEventListener('%s', function(e) { %s });", strings.TrimPrefix(event, "on"), handler)
}
