package stitch

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-pipeline/internal/detect"
	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/amount"
	"github.com/FACorreiaa/statement-pipeline/pkg/dates"
)

// knownBanks are issuer names recognized in statement headers. Lowercase for
// case-insensitive scanning; display form on the right.
var knownBanks = []struct{ needle, display string }{
	{"metro bank", "Metro Bank"},
	{"hsbc", "HSBC"},
	{"barclays", "Barclays"},
	{"lloyds", "Lloyds"},
	{"natwest", "NatWest"},
	{"santander", "Santander"},
	{"nationwide", "Nationwide"},
	{"monzo", "Monzo"},
	{"starling", "Starling"},
	{"revolut", "Revolut"},
	{"halifax", "Halifax"},
	{"chase", "Chase"},
	{"citibank", "Citibank"},
	{"wells fargo", "Wells Fargo"},
	{"bank of america", "Bank of America"},
}

var (
	accountNumberPattern = regexp.MustCompile(`\b(\d{8,16})\b`)
	holderLabelPattern   = regexp.MustCompile(`(?i)account\s+(?:holder|name)\s*:?\s*(.+)`)
	periodLabelPattern   = regexp.MustCompile(`(?i)(?:statement\s+period|period|statement\s+date[s]?|from)\b`)
)

// ExtractHeader harvests document-level metadata from the statement pages:
// issuer, account holder, masked account number, statement period and
// currency. Every field is best-effort; absence is not an error.
func ExtractHeader(pages []models.PageTokens) models.StatementHeader {
	var header models.StatementHeader
	if len(pages) == 0 {
		return header
	}

	rows := detect.GroupRows(pages[0].Tokens, detect.DefaultConfig().RowTolerance)
	var firstPage strings.Builder
	for _, row := range rows {
		firstPage.WriteString(row.Text())
		firstPage.WriteString("\n")
	}
	text := firstPage.String()
	lower := strings.ToLower(text)

	for _, bank := range knownBanks {
		if strings.Contains(lower, bank.needle) {
			header.BankName = bank.display
			break
		}
	}

	if m := accountNumberPattern.FindString(text); m != "" {
		header.AccountNumberMasked = maskAccountNumber(m)
	}

	for _, row := range rows {
		line := row.Text()
		if header.AccountHolder == "" {
			if m := holderLabelPattern.FindStringSubmatch(line); m != nil {
				header.AccountHolder = strings.TrimSpace(m[1])
			}
		}
		if header.StatementPeriodFrom == "" && periodLabelPattern.MatchString(line) {
			if found := dates.FindAll(line); len(found) >= 2 {
				header.StatementPeriodFrom = found[0]
				header.StatementPeriodTo = found[1]
			}
		}
	}

	// Currency comes from the first symbol seen anywhere in the document.
	for _, page := range pages {
		for _, tok := range page.Tokens {
			if c := amount.DetectCurrency(tok.Text); c != "" {
				header.Currency = c
				break
			}
		}
		if header.Currency != "" {
			break
		}
	}

	return header
}

// maskAccountNumber keeps the last four digits visible.
func maskAccountNumber(n string) string {
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}
