//go:build property

package renderer

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/scanner"
)

func TestExpansionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	e := New(Options{ReadFile: mapReader(nil)})

	properties.Property("content without tags is unchanged", prop.ForAll(
		func(content string) bool {
			out, err := e.Expand(context.Background(), content, NewProcessingContext(nil))
			return err == nil && out == content
		},
		gen.AlphaString(),
	))

	properties.Property("unknown tags expand idempotently", prop.ForAll(
		func(suffix, before, after string) bool {
			content := before + "<p><#ZZ" + strings.ToUpper(suffix) + "></p>" + after
			once, err := e.Expand(context.Background(), content, NewProcessingContext(nil))
			if err != nil {
				return false
			}
			twice, err := e.Expand(context.Background(), once, NewProcessingContext(nil))
			return err == nil && once == twice && !scanner.HasTags(once)
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("attribute values never break out of the attribute", prop.ForAll(
		func(value string) bool {
			data := mockdata.NewFieldBag()
			data.Set("X", value)

			out, err := e.Expand(context.Background(), `<input value="<#PARAM name="X">">`, NewProcessingContext(data))
			if err != nil {
				return false
			}
			const prefix, suffix = `<input value="`, `">`
			if !strings.HasPrefix(out, prefix) || !strings.HasSuffix(out, suffix) {
				return false
			}
			inner := out[len(prefix) : len(out)-len(suffix)]
			return !strings.ContainsAny(inner, `<>"`)
		},
		gen.AnyString(),
	))

	properties.Property("every PARAM is replaced", prop.ForAll(
		func(names []string) bool {
			var b strings.Builder
			data := mockdata.NewFieldBag()
			for _, n := range names {
				b.WriteString(`<div><#PARAM name="` + n + `"></div>`)
				data.Set(n, "v"+n)
			}
			pctx := NewProcessingContext(data)
			out, err := e.Expand(context.Background(), b.String(), pctx)
			return err == nil && !scanner.HasTags(out) && len(pctx.TagMap) == len(names) && !pctx.Errors.HasErrors()
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
