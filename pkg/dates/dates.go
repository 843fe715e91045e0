// Package dates recognizes and parses the date formats that appear in bank
// statements. Parsing is deliberately format-list driven rather than locale
// aware: statements mix formats even within one document.
package dates

import (
	"regexp"
	"strings"
	"time"
)

var (
	// DD/MM/YYYY, MM/DD/YYYY, DD/MM/YY
	patternSlash = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`)
	// 15 Jan 2024, 15 Jan 24, 4 Dec
	patternText = regexp.MustCompile(`(?i)^\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*(?:\s+\d{2,4})?$`)
	// 15-Jan-2024
	patternDash = regexp.MustCompile(`(?i)^\d{1,2}-(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*-\d{2,4}$`)
	// 2024-01-15
	patternISO = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// 15.01.2024
	patternDot = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{2,4}$`)
)

// IsDate reports whether s matches any recognized statement date format.
func IsDate(s string) bool {
	s = strings.TrimSpace(s)
	return patternSlash.MatchString(s) ||
		patternText.MatchString(s) ||
		patternDash.MatchString(s) ||
		patternISO.MatchString(s) ||
		patternDot.MatchString(s)
}

var layouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02/01/06",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02 January 2006",
	"2 Jan 06",
	"2-Jan-2006",
	"02-Jan-2006",
	"2-Jan-06",
}

var findPattern = regexp.MustCompile(`(?i)\b(\d{4}-\d{2}-\d{2}|\d{1,2}[/.]\d{1,2}[/.]\d{2,4}|\d{1,2}[\s-](?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*(?:[\s-]\d{2,4})?)\b`)

// FindAll returns every date-looking substring in s, in order of appearance.
func FindAll(s string) []string {
	return findPattern.FindAllString(s, -1)
}

// Parse attempts the known layouts in priority order. Year-less dates such as
// "4 Dec" resolve against year 0; callers sorting by date should treat them
// as same-year values.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Year-less "D Mon" form used by some business statements.
	for _, layout := range []string{"2 Jan", "02 Jan"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize returns the ISO form of s when parseable, otherwise s trimmed.
// Used for matching dates across formatting differences.
func Normalize(s string) string {
	if t, ok := Parse(s); ok {
		return t.Format("2006-01-02")
	}
	return strings.TrimSpace(s)
}
