package renderer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/conneroisu/aeonkit/internal/scanner"
)

func missingAttribute(name string) error {
	return fmt.Errorf("Missing required attribute: %s", name)
}

func (e *Engine) registerBuiltins() {
	e.Register("PARAM", handleParam)
	e.Register("USER", handleUser)
	e.Register("ACTIVITY", handleActivity)
	e.Register("STATUS", handleStatus)
	e.Register("ERROR", handleError)
	e.Register("OPTION", handleOption)
	e.Register("TABLE", handleTable)
	e.Register("CONDITIONAL", handleConditional)
	e.Register("CHECKED", handleChecked)
	e.Register("SELECTED", handleChecked)
	e.Register("FORMSTATE", handleFormState)
	e.Register("INCLUDE", e.handleInclude)
}

func handleParam(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	name := attrs.Get("name")
	if name == "" {
		return `<span class="error">PARAM: Missing name attribute</span>`, missingAttribute("name")
	}

	value := pctx.MockData.String(name)
	return fmt.Sprintf(`<span class="param-value" data-field="%s" title="Field: %s">%s</span>`,
		html.EscapeString(name), html.EscapeString(name), html.EscapeString(value)), nil
}

func handleUser(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	field := attrs.Get("field")
	if field == "" {
		return `<span class="error">USER: Missing field attribute</span>`, missingAttribute("field")
	}

	value := pctx.MockData.String(field)
	return fmt.Sprintf(`<span class="user-field" data-field="%s">%s</span>`,
		html.EscapeString(field), html.EscapeString(value)), nil
}

func handleActivity(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	field := attrs.Get("field")
	if field == "" {
		return `<span class="error">ACTIVITY: Missing field attribute</span>`, missingAttribute("field")
	}

	value := pctx.MockData.String("Activity" + field)
	return fmt.Sprintf(`<span class="activity-field" data-field="%s">%s</span>`,
		html.EscapeString(field), html.EscapeString(value)), nil
}

func handleStatus(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	message := pctx.MockData.String("StatusMessage")
	if message == "" {
		return "", nil
	}

	class := attrs.GetOr("class", "status")
	return fmt.Sprintf(`<div class="%s">%s</div>`, html.EscapeString(class), html.EscapeString(message)), nil
}

func handleError(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	field := attrs.GetOr("field", attrs.Get("name"))
	if field == "" {
		return "", missingAttribute("field")
	}

	message, ok := pctx.MockData.StringMap("ErrorMessages")[field]
	if !ok || message == "" {
		return "", nil
	}
	return fmt.Sprintf(`<span class="field-error">%s</span>`, html.EscapeString(message)), nil
}

func handleConditional(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	test := attrs.Get("test")
	if test == "" {
		return "<!-- CONDITIONAL: Missing test attribute -->", missingAttribute("test")
	}

	result := evaluateCondition(test, pctx)

	body := "<!-- Condition is false -->"
	branch := "false"
	if result {
		body = "<!-- Condition is true -->"
		branch = "true"
	}
	if text, ok := attrs.Lookup(branch); ok {
		body = html.EscapeString(text)
	}

	return fmt.Sprintf(`<div class="conditional" data-test="%s" data-result="%t">%s</div>`,
		html.EscapeString(test), result, body), nil
}

// evaluateCondition supports a single `field=literal` equality test. The
// literal may be quoted; anything without '=' is false.
func evaluateCondition(test string, pctx *ProcessingContext) bool {
	if !strings.Contains(test, "=") {
		return false
	}
	parts := strings.Split(test, "=")
	field := strings.TrimSpace(parts[0])
	literal := strings.NewReplacer(`'`, "", `"`, "").Replace(strings.TrimSpace(parts[1]))

	return pctx.MockData.String(field) == literal
}

// handleChecked serves CHECKED and SELECTED. It returns "true" when the
// named field is Yes/true, or when the field is absent and default="true".
func handleChecked(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	def := strings.EqualFold(attrs.Get("default"), "true")

	name := attrs.Get("name")
	set := def
	if name != "" && pctx.MockData.Has(name) {
		v := pctx.MockData.String(name)
		set = strings.EqualFold(v, "yes") || strings.EqualFold(v, "true")
	}

	if set {
		return "true", nil
	}
	return "", nil
}

func handleFormState(_ context.Context, _ scanner.Attributes, pctx *ProcessingContext) (string, error) {
	state := pctx.MockData.String("FormState")
	if state == "" {
		state = "Default"
	}
	return fmt.Sprintf(`<input type="hidden" name="FormState" value="%s" />`, html.EscapeString(state)), nil
}

type option struct {
	value, label string
}

var optionTables = map[string][]option{
	"statuses": {
		{"Student", "Student"}, {"Faculty", "Faculty"}, {"Staff", "Staff"},
		{"Researcher", "Researcher"}, {"Other", "Other"},
	},
	"departments": {
		{"History", "History"}, {"English", "English"}, {"Art History", "Art History"},
		{"Music", "Music"}, {"Library Science", "Library Science"}, {"Other", "Other"},
	},
	"states": {
		{"CA", "California"}, {"NY", "New York"}, {"TX", "Texas"},
		{"FL", "Florida"}, {"WA", "Washington"},
	},
	"countries": {
		{"US", "United States"}, {"CA", "Canada"}, {"MX", "Mexico"},
		{"UK", "United Kingdom"}, {"AU", "Australia"},
	},
	"format": {
		{"PDF", "PDF"}, {"JPEG", "JPEG"}, {"TIFF", "TIFF"},
	},
	"deliverymethod": {
		{"Email", "Email"}, {"Download", "Download"}, {"USB", "USB Drive"},
	},
}

var fallbackOptions = []option{{"", "Select an option"}}

func handleOption(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	name := attrs.Get("name")
	if name == "" {
		return `<option value="">No options available</option>`, missingAttribute("name")
	}

	selected, ok := attrs.Lookup("selectedvalue")
	if !ok {
		selected = pctx.MockData.String(name)
	}
	defaultName := attrs.GetOr("defaultname", "Select an option")
	defaultValue := attrs.Get("defaultvalue")

	options, found := optionTables[strings.ToLower(name)]
	if !found {
		options = fallbackOptions
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<option value="%s">%s</option>`, html.EscapeString(defaultValue), html.EscapeString(defaultName))
	for _, opt := range options {
		attr := ""
		if selected != "" && opt.value == selected {
			attr = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, html.EscapeString(opt.value), attr, html.EscapeString(opt.label))
	}
	return b.String(), nil
}

// tableColumn pairs a header with the mock field it reads and a fallback.
type tableColumn struct {
	header, field, fallback string
}

var tableGenerators = map[string][]tableColumn{
	"transactions": {
		{"Transaction #", "TransactionNumber", "12345"},
		{"Title", "ItemTitle", "Sample Document"},
		{"Status", "TransactionStatus", "Submitted"},
		{"Date", "TransactionDate", ""},
	},
	"activities": {
		{"Activity", "ActivityName", "Reading Room"},
		{"Type", "ActivityType", "Research"},
		{"Date", "ActivityBeginDate", ""},
	},
}

func handleTable(_ context.Context, attrs scanner.Attributes, pctx *ProcessingContext) (string, error) {
	name := attrs.Get("name")
	noData := attrs.GetOr("nodatamessage", "No data available for this table.")

	var err error
	if name == "" {
		err = missingAttribute("name")
	}

	columns, ok := tableGenerators[strings.ToLower(name)]
	if !ok {
		return fmt.Sprintf("<p>%s</p>", html.EscapeString(noData)), err
	}

	class := attrs.GetOr("class", "table table-striped")
	idAttr := ""
	if id := attrs.Get("id"); id != "" {
		idAttr = fmt.Sprintf(` id="%s"`, html.EscapeString(id))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<table%s class="%s">`, idAttr, html.EscapeString(class))
	if caption := attrs.Get("headertext"); caption != "" {
		fmt.Fprintf(&b, "<caption>%s</caption>", html.EscapeString(caption))
	}
	b.WriteString("<thead><tr>")
	for _, col := range columns {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(col.header))
	}
	b.WriteString("</tr></thead><tbody><tr>")
	for _, col := range columns {
		value := pctx.MockData.String(col.field)
		if value == "" {
			value = col.fallback
		}
		fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(value))
	}
	b.WriteString("</tr></tbody></table>")
	return b.String(), nil
}
