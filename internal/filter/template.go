package filter

import (
	"context"
	"regexp"
	"strings"
)

var fieldRef = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// RenderTemplate replaces field references in tmpl. {{Field}} is the
// field's value; {{<filter>:Field}} is the value passed through Apply. A
// reference to a field the note does not have is left as written.
func (f *Filter) RenderTemplate(ctx context.Context, tmpl string, render RenderContext) string {
	note := render.Note()
	return fieldRef.ReplaceAllStringFunc(tmpl, func(ref string) string {
		inner := strings.TrimSpace(ref[2 : len(ref)-2])

		filterName, fieldName := "", inner
		if i := strings.LastIndex(inner, ":"); i >= 0 {
			filterName, fieldName = strings.TrimSpace(inner[:i]), strings.TrimSpace(inner[i+1:])
		}

		fieldText, ok := note[fieldName]
		if !ok {
			return ref
		}
		if filterName == "" {
			return fieldText
		}
		return f.Apply(ctx, fieldText, fieldName, filterName, render)
	})
}
