// Package dates normalizes and parses the loosely formatted date/time
// strings humans type on the command line (e.g. "1may1120", "today1032").
package dates

import (
	"regexp"
	"strings"
)

// Matches maximal runs of letters, or of digits/hyphens/colons.
// "1may1120" tokenizes to ["1", "may", "1120"].
var tokenRegex = regexp.MustCompile(`[a-zA-Z]+|[0-9:-]+`)

// Normalize rewrites a free-form date/time string into a form Parse
// accepts. Bare numeric times are padded and coloned ("930" -> "09:30",
// "1120" -> "11:20"); tokens that already carry a colon, are shorter
// than three digits, or are not purely numeric pass through unchanged.
// A single date-only token gets "00:00" appended so pure dates default
// to midnight. Empty input yields empty output.
func Normalize(input string) string {
	tokens := tokenRegex.FindAllString(input, -1)
	if len(tokens) == 0 {
		return ""
	}

	for i, tok := range tokens {
		if len(tok) >= 3 && isDigits(tok) {
			tokens[i] = spliceColon(pad4(tok))
		}
	}

	if len(tokens) == 1 && !strings.Contains(tokens[0], ":") {
		tokens = append(tokens, "00:00")
	}

	return strings.Join(tokens, " ")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func pad4(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

// spliceColon splits a bare numeric time into HH:MM, keeping the last
// two digits as minutes.
func spliceColon(s string) string {
	return s[:len(s)-2] + ":" + s[len(s)-2:]
}
