package renderer

import (
	"regexp"
	"strings"
)

var (
	cssLinkPattern  = regexp.MustCompile(`(?i)<link\s+([^>]*\s+)?href=["']([^"']+\.css)["']([^>]*)>`)
	jsScriptPattern = regexp.MustCompile(`(?i)<script\s+([^>]*\s+)?src=["']([^"']+\.js)["']([^>]*?)></script>`)
	imgPattern      = regexp.MustCompile(`(?i)<img\s+([^>]*\s+)?src=["']([^"']+)["']([^>]*)>`)
)

// isRemoteResource reports whether a reference must be left untouched:
// remote and data: URIs, and references that are already placeholders.
func isRemoteResource(ref string) bool {
	if strings.HasPrefix(ref, "${") {
		return true
	}
	lower := strings.ToLower(ref)
	for _, prefix := range []string{"http://", "https://", "data:", "vscode-webview:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func rewrite(pattern *regexp.Regexp, content, format string) string {
	return pattern.ReplaceAllStringFunc(content, func(match string) string {
		m := pattern.FindStringSubmatch(match)
		if m == nil || isRemoteResource(m[2]) {
			return match
		}
		return strings.NewReplacer("{prefix}", m[1], "{ref}", m[2], "{suffix}", m[3]).Replace(format)
	})
}

// RewriteResources replaces local stylesheet, script and image references
// with ${CSS_RESOURCE:path}, ${JS_RESOURCE:path} and ${IMG_RESOURCE:path}
// placeholders for the host to resolve. Remote and data: references are
// kept.
func RewriteResources(content string) string {
	content = rewrite(cssLinkPattern, content, `<link {prefix}href="${CSS_RESOURCE:{ref}}" {suffix}>`)
	content = rewrite(jsScriptPattern, content, `<script {prefix}src="${JS_RESOURCE:{ref}}" {suffix}></script>`)
	content = rewrite(imgPattern, content, `<img {prefix}src="${IMG_RESOURCE:{ref}}" {suffix}>`)
	return content
}

var placeholderPattern = regexp.MustCompile(`\$\{(CSS|JS|IMG)_RESOURCE:([^}]+)\}`)

// ResolveResources substitutes every resource placeholder with resolve's
// result for its kind ("CSS", "JS" or "IMG") and path.
func ResolveResources(content string, resolve func(kind, path string) string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := placeholderPattern.FindStringSubmatch(match)
		return resolve(m[1], m[2])
	})
}
