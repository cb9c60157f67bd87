package templates

import (
	"regexp"
	"sort"
)

// fieldPattern matches bare substitution tags like {{ name }} or
// {{ name.sub }}. Control-flow tags, filters and expressions are out of
// scope; only simple variable references count as fields.
var fieldPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// ExtractFields returns the distinct placeholder names referenced by the
// markup. The result is sorted so repeated extraction of the same markup
// persists identically.
func ExtractFields(markup string) []string {
	seen := make(map[string]struct{})
	for _, m := range fieldPattern.FindAllStringSubmatch(markup, -1) {
		seen[m[1]] = struct{}{}
	}
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
