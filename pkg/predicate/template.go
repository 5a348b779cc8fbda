package predicate

import (
	"regexp"

	"reconciled/pkg/row"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)

// RenderTemplate substitutes `{role}`, `{business.role}`, `{finance.role}`
// placeholders in template against the pair's rows. The stringified cell
// value is used (empty for null); an unknown placeholder — one that names
// neither a bare role present on either side nor a side-qualified role —
// renders literally, braces included.
func RenderTemplate(template string, business, finance row.Row) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]

		switch {
		case len(name) > 9 && name[:9] == "business.":
			return lookupFormatted(business, name[9:], match)
		case len(name) > 8 && name[:8] == "finance.":
			return lookupFormatted(finance, name[8:], match)
		default:
			if v, ok := business[name]; ok {
				return v.FormatString()
			}
			if v, ok := finance[name]; ok {
				return v.FormatString()
			}
			return match
		}
	})
}

func lookupFormatted(r row.Row, key, fallback string) string {
	if r == nil {
		return fallback
	}
	if v, ok := r[key]; ok {
		return v.FormatString()
	}
	return fallback
}
