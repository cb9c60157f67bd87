package billing

import "strings"

// swissDate normalises a date string for the document. Values already in
// DD.MM.YYYY form pass through, ISO dates (YYYY-MM-DD, with or without a
// time suffix) are reassembled, anything else is left untouched.
func swissDate(s string) string {
	if strings.Count(s, ".") == 2 {
		return s
	}
	if len(s) >= 10 {
		parts := strings.SplitN(s[:10], "-", 3)
		if len(parts) == 3 && len(parts[0]) == 4 && len(parts[1]) == 2 && len(parts[2]) == 2 {
			return parts[2] + "." + parts[1] + "." + parts[0]
		}
	}
	return s
}
