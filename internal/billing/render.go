package billing

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches bare {{ dotted.path }} placeholders. Control
// blocks and filter expressions do not match and are left in the output
// untouched.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// renderMarkup substitutes every placeholder in markup with its value
// from ctx in a single pass. Unresolvable paths become empty strings.
func renderMarkup(markup string, ctx map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(markup, func(match string) string {
		path := placeholderPattern.FindStringSubmatch(match)[1]
		return stringify(lookup(ctx, path))
	})
}

// lookup resolves a dotted path against nested maps and slices. Numeric
// segments index into slices, so items.0.price addresses the first line
// item's price.
func lookup(ctx map[string]any, path string) any {
	var current any = ctx
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil
			}
			current = value
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		case []LineItem:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		case LineItem:
			switch segment {
			case "description":
				current = node.Description
			case "price":
				current = node.Price
			case "qty":
				current = node.Qty
			case "total":
				current = node.Total
			default:
				return nil
			}
		default:
			return nil
		}
	}
	return current
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
