package dom

import (
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Parsed selectors are cached; the analyzer reuses a small fixed set.
var (
	groups    sync.Map // string -> cascadia.SelectorGroup
	selectors sync.Map // string -> cascadia.Sel
)

func parseGroup(selector string) cascadia.SelectorGroup {
	if g, ok := groups.Load(selector); ok {
		return g.(cascadia.SelectorGroup)
	}
	g, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil
	}
	groups.Store(selector, g)
	return g
}

func parseSel(selector string) cascadia.Sel {
	if s, ok := selectors.Load(selector); ok {
		return s.(cascadia.Sel)
	}
	s, err := cascadia.Parse(selector)
	if err != nil {
		return nil
	}
	selectors.Store(selector, s)
	return s
}

// QueryAll returns the descendants of root matching a CSS selector group,
// in document order, without duplicates. An invalid selector matches
// nothing.
func QueryAll(root *html.Node, selector string) []*html.Node {
	g := parseGroup(selector)
	if len(g) == 0 || root == nil {
		return nil
	}
	return cascadia.QueryAll(root, g)
}

// First returns the first descendant of root matching selector, or nil.
func First(root *html.Node, selector string) *html.Node {
	g := parseGroup(selector)
	if len(g) == 0 || root == nil {
		return nil
	}
	return cascadia.Query(root, g)
}

// Matches reports whether n itself matches a single selector such as
// "section" or "div.row".
func Matches(n *html.Node, selector string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	s := parseSel(selector)
	return s != nil && s.Match(n)
}
