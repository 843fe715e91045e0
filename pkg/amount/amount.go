// Package amount parses monetary strings as they appear in bank statements:
// currency symbols, thousands separators, parenthesized negatives, trailing
// DR/CR markers and common OCR punctuation damage.
package amount

import (
	"regexp"
	"strconv"
	"strings"
)

var currencySymbols = map[string]string{
	"£":   "GBP",
	"$":   "USD",
	"€":   "EUR",
	"₹":   "INR",
	"GBP": "GBP",
	"USD": "USD",
	"EUR": "EUR",
	"INR": "INR",
}

// amountPattern matches numbers with an optional sign, optional thousands
// separators and a decimal fraction. Column type inference keys off the
// decimal part: bare integers are usually references, not amounts.
var amountPattern = regexp.MustCompile(`^[-+(]?\s*(?:[£$€₹]\s*)?\d{1,3}(?:,?\d{3})*\.\d{1,2}\s*\)?(?:\s*(?i:DR|CR))?$`)

// looseAmountPattern accepts amounts without a decimal part as well; used when
// a cell already sits in a known monetary column.
var looseAmountPattern = regexp.MustCompile(`^[-+(]?\s*(?:[£$€₹]\s*)?\d{1,3}(?:,?\d{3})*(?:\.\d{1,2})?\s*\)?(?:\s*(?i:DR|CR))?$`)

// IsAmount reports whether s looks like a monetary value with a decimal part.
func IsAmount(s string) bool {
	return amountPattern.MatchString(strings.TrimSpace(s))
}

// IsLooseAmount reports whether s parses as a number once currency decoration
// is stripped, decimal part optional.
func IsLooseAmount(s string) bool {
	return looseAmountPattern.MatchString(strings.TrimSpace(s))
}

// Parse converts strings like "1,234.56", "-£1,234.56", "(45.00)" or
// "200.00 CR" to a float64. The boolean is false when s is not an amount.
// Parenthesized values and DR suffixes yield negative results.
func Parse(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}

	negative := false
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "DR") {
		negative = true
		s = strings.TrimSpace(s[:len(s)-2])
	} else if strings.HasSuffix(upper, "CR") {
		s = strings.TrimSpace(s[:len(s)-2])
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}
	s = strings.TrimPrefix(s, "+")

	for sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// DetectCurrency returns the ISO code for the first currency symbol found in
// s, or "" when none is present.
func DetectCurrency(s string) string {
	for sym, code := range currencySymbols {
		if strings.Contains(s, sym) {
			return code
		}
	}
	return ""
}

var (
	ocrSemicolon = regexp.MustCompile(`(\d);(\s*)(\d)`)
	ocrColonMid  = regexp.MustCompile(`(\d):(\d)`)
	ocrColonEnd  = regexp.MustCompile(`(\d):(\s|$)`)
)

// SanitizeOCR fixes common OCR misreads in amount text. Tesseract tends to
// read decimal points as semicolons or colons: "1,234; 56" becomes "1,234.56".
func SanitizeOCR(s string) string {
	s = ocrSemicolon.ReplaceAllString(s, "$1.$3")
	s = ocrColonMid.ReplaceAllString(s, "$1.$2")
	s = ocrColonEnd.ReplaceAllString(s, "$1$2")
	return s
}

// Format renders v with two decimal places, the fixed export formatting.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
