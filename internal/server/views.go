package server

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/aeonkit/internal/registry"
	"github.com/conneroisu/aeonkit/internal/renderer"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%}
th,td{text-align:left;padding:.4rem .6rem;border-bottom:1px solid #ddd}
code{background:#f4f4f4;padding:0 .2rem}
.muted{color:#777}`

const panelStyle = `#aeonkit-panel{position:fixed;right:1rem;bottom:1rem;max-width:28rem;max-height:40vh;overflow:auto;
background:#fff8f0;border:1px solid #e0a060;border-radius:6px;padding:.6rem .8rem;font:13px/1.4 system-ui,sans-serif;
box-shadow:0 2px 8px rgba(0,0,0,.15);z-index:2147483647}
#aeonkit-panel h4{margin:0 0 .4rem}
#aeonkit-panel ul{margin:0;padding-left:1.2rem}`

const reloadScript = `(function(){
var proto=location.protocol==="https:"?"wss://":"ws://";
var doc=document.currentScript&&document.currentScript.dataset.document;
function connect(){
var ws=new WebSocket(proto+location.host+"/ws");
ws.onmessage=function(ev){
var msg;try{msg=JSON.parse(ev.data);}catch(e){return;}
if(msg.type==="reload"&&(!msg.target||msg.target===doc)){location.reload();}
};
ws.onclose=function(){setTimeout(connect,1000);};
}
connect();
})();`

// documentRow is one line of the index page.
type documentRow struct {
	Path     string
	AeonForm string
	Type     registry.PageType
	Tags     int
}

func documentRows(docs []*registry.DocumentInfo) []documentRow {
	rows := make([]documentRow, 0, len(docs))
	for _, doc := range docs {
		count := 0
		for _, t := range doc.Tags {
			count += t.Count
		}
		rows = append(rows, documentRow{
			Path:     doc.RelativePath,
			AeonForm: doc.AeonForm,
			Type:     doc.DetectedType,
			Tags:     count,
		})
	}
	return rows
}

// IndexPage lists the workspace documents with links to their previews.
func IndexPage(rows []documentRow, profile string, profiles []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>aeonkit preview</title>")
		fmt.Fprintf(&b, "<style>%s</style></head><body>", pageStyle)
		b.WriteString("<h1>Aeon pages</h1>")
		fmt.Fprintf(&b, "<p class=\"muted\">Profile: <code>%s</code> (%s)</p>",
			templ.EscapeString(profile), templ.EscapeString(strings.Join(profiles, ", ")))

		if len(rows) == 0 {
			b.WriteString("<p>No Aeon pages found.</p>")
		} else {
			b.WriteString("<table><thead><tr><th>Page</th><th>AeonForm</th><th>Type</th><th>Tags</th></tr></thead><tbody>")
			for _, row := range rows {
				fmt.Fprintf(&b, "<tr><td><a href=\"/preview/%s\">%s</a></td><td>%s</td><td>%s</td><td>%d</td></tr>",
					previewLink(row.Path), templ.EscapeString(row.Path),
					templ.EscapeString(row.AeonForm), templ.EscapeString(string(row.Type)), row.Tags)
			}
			b.WriteString("</tbody></table>")
		}

		b.WriteString("</body></html>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func previewLink(rel string) string {
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// PreviewPage writes the expanded document followed by the tag error panel,
// the theme stylesheet and the live reload script. The additions go before
// </body> when the document has one, otherwise at the end.
func PreviewPage(document string, res *renderer.Result, themeCSS string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var extra strings.Builder
		if themeCSS != "" {
			fmt.Fprintf(&extra, "<style id=\"aeonkit-theme\">%s</style>", strings.ReplaceAll(themeCSS, "</", "<\\/"))
		}
		if len(res.Errors) > 0 {
			fmt.Fprintf(&extra, "<style>%s</style><div id=\"aeonkit-panel\"><h4>%d tag error(s)</h4><ul>",
				panelStyle, len(res.Errors))
			for _, tagErr := range res.Errors {
				fmt.Fprintf(&extra, "<li><code>&lt;#%s&gt;</code> %s</li>",
					templ.EscapeString(tagErr.Tag), templ.EscapeString(tagErr.Message))
			}
			extra.WriteString("</ul></div>")
		}
		fmt.Fprintf(&extra, "<script data-document=\"%s\">%s</script>", templ.EscapeString(document), reloadScript)

		page := res.HTML
		if i := strings.LastIndex(strings.ToLower(page), "</body>"); i >= 0 {
			page = page[:i] + extra.String() + page[i:]
		} else {
			page += extra.String()
		}
		_, err := io.WriteString(w, page)
		return err
	})
}
