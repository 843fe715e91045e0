// Package exportcheck reconciles a rendered export against the originally
// extracted transactions. It is the last line of defense against export
// bugs silently dropping or mangling rows, so it re-derives ground truth
// independently instead of trusting earlier-stage guarantees.
package exportcheck

import (
	"math"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/amount"
	"github.com/FACorreiaa/statement-pipeline/pkg/dates"
)

// Config holds the matching and scoring knobs.
type Config struct {
	// AmountEpsilon is the tolerance for amount comparisons.
	AmountEpsilon float64
	// DescriptionThreshold is the minimum similarity (0-100) for a
	// description to count as the same transaction.
	DescriptionThreshold int
	// MatchWeight and IntegrityWeight combine the match rate and the
	// corruption-free rate into the confidence score. They sum to 1.
	MatchWeight     float64
	IntegrityWeight float64
}

// DefaultConfig returns the standard reconciliation settings.
func DefaultConfig() Config {
	return Config{
		AmountEpsilon:        0.01,
		DescriptionThreshold: 60,
		MatchWeight:          0.8,
		IntegrityWeight:      0.2,
	}
}

// ValidateExport reconciles exported rows against the source transactions.
// Every source transaction must find a row by (date, description, amount)
// fuzzy match; unmatched sources are missing transactions and flip the
// verdict to EXPORT_INCOMPLETE. Matched rows with field drift beyond
// formatting become corrupted transactions (soft failure). Export rows with
// no source counterpart, or repeating another row, land in duplicates_in_csv.
func ValidateExport(source []models.ParsedTransaction, rows []models.ExportedRow, cfg Config) *models.ExportValidationResult {
	result := &models.ExportValidationResult{
		ExportValidation: models.ExportCounts{
			PDFTransactions: len(source),
			ExportedRows:    len(rows),
		},
		MissingTransactions:   []models.MissingTransaction{},
		CorruptedTransactions: []models.CorruptedTransaction{},
		DuplicatesInCSV:       []models.DuplicateRow{},
	}

	rowClaimed := make([]bool, len(rows))

	for si := range source {
		rowIdx := findMatch(&source[si], rows, rowClaimed, cfg)
		if rowIdx < 0 {
			signed, ok := source[si].SignedAmount()
			missing := models.MissingTransaction{
				SourceIndex: si,
				Date:        source[si].Date,
				Description: source[si].Description,
			}
			if ok {
				missing.Amount = &signed
			}
			result.MissingTransactions = append(result.MissingTransactions, missing)
			continue
		}
		rowClaimed[rowIdx] = true
		result.CorruptedTransactions = append(result.CorruptedTransactions, fieldDrift(si, &source[si], rowIdx, &rows[rowIdx])...)
	}

	// Anything unclaimed is either alien to the source or a repeat of a
	// claimed row.
	seen := make(map[string]bool)
	for ri := range rows {
		key := rowKey(&rows[ri])
		if rowClaimed[ri] {
			seen[key] = true
			continue
		}
		reason := "no matching source transaction"
		if seen[key] {
			reason = "duplicates another exported row"
		}
		seen[key] = true
		result.DuplicatesInCSV = append(result.DuplicatesInCSV, models.DuplicateRow{RowIndex: ri, Reason: reason})
	}

	result.ConfidenceScore = confidence(result, cfg)
	if len(result.MissingTransactions) > 0 {
		result.Verdict = models.VerdictExportIncomplete
	} else {
		result.Verdict = models.VerdictExportComplete
	}
	return result
}

// findMatch locates the first unclaimed row agreeing on date, amount and
// description prefix/similarity.
func findMatch(tx *models.ParsedTransaction, rows []models.ExportedRow, claimed []bool, cfg Config) int {
	txDate := dates.Normalize(tx.Date)
	txSigned, txHasAmount := tx.SignedAmount()

	for ri := range rows {
		if claimed[ri] {
			continue
		}
		if dates.Normalize(rows[ri].Date) != txDate {
			continue
		}
		if !amountsAgree(txHasAmount, txSigned, &rows[ri], cfg.AmountEpsilon) {
			continue
		}
		if descriptionsAgree(tx.Description, rows[ri].Description, cfg.DescriptionThreshold) {
			return ri
		}
	}
	return -1
}

func amountsAgree(hasAmount bool, signed float64, row *models.ExportedRow, eps float64) bool {
	rowSigned, rowHas := rowSignedAmount(row)
	if !hasAmount || !rowHas {
		return hasAmount == rowHas
	}
	return math.Abs(signed-rowSigned) <= eps
}

func rowSignedAmount(row *models.ExportedRow) (float64, bool) {
	if v, ok := amount.Parse(row.Debit); ok {
		return -math.Abs(v), true
	}
	if v, ok := amount.Parse(row.Credit); ok {
		return math.Abs(v), true
	}
	return 0, false
}

// descriptionsAgree accepts exact matches, prefix truncation (a truncated
// export still identifies the transaction; drift reporting flags it) and
// fuzzy similarity above the threshold.
func descriptionsAgree(src, exported string, threshold int) bool {
	a := strings.ToUpper(strings.TrimSpace(src))
	b := strings.ToUpper(strings.TrimSpace(exported))
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		return true
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	if distance > longer {
		distance = longer
	}
	return 100*(longer-distance)/longer >= threshold
}

// fieldDrift compares a matched pair field by field, past formatting.
func fieldDrift(si int, tx *models.ParsedTransaction, ri int, row *models.ExportedRow) []models.CorruptedTransaction {
	var drifts []models.CorruptedTransaction

	srcDesc := strings.TrimSpace(tx.Description)
	expDesc := strings.TrimSpace(row.Description)
	if !strings.EqualFold(srcDesc, expDesc) {
		drifts = append(drifts, models.CorruptedTransaction{
			SourceIndex:   si,
			RowIndex:      ri,
			Field:         "description",
			SourceValue:   srcDesc,
			ExportedValue: expDesc,
		})
	}

	if tx.Balance != nil {
		if v, ok := amount.Parse(row.Balance); !ok || math.Abs(v-*tx.Balance) > 0.01 {
			drifts = append(drifts, models.CorruptedTransaction{
				SourceIndex:   si,
				RowIndex:      ri,
				Field:         "balance",
				SourceValue:   amount.Format(*tx.Balance),
				ExportedValue: strings.TrimSpace(row.Balance),
			})
		}
	}

	if tx.Reference != "" && !strings.EqualFold(strings.TrimSpace(tx.Reference), strings.TrimSpace(row.Reference)) {
		drifts = append(drifts, models.CorruptedTransaction{
			SourceIndex:   si,
			RowIndex:      ri,
			Field:         "reference",
			SourceValue:   tx.Reference,
			ExportedValue: strings.TrimSpace(row.Reference),
		})
	}
	return drifts
}

func rowKey(row *models.ExportedRow) string {
	return strings.Join([]string{
		dates.Normalize(row.Date),
		strings.ToUpper(strings.TrimSpace(row.Description)),
		strings.TrimSpace(row.Debit),
		strings.TrimSpace(row.Credit),
	}, "|")
}

// confidence weighs the match rate against the corruption rate. A clean
// round-trip scores 1.0; missing rows dominate the penalty.
func confidence(result *models.ExportValidationResult, cfg Config) float64 {
	total := result.ExportValidation.PDFTransactions
	if total == 0 {
		if result.ExportValidation.ExportedRows == 0 {
			return 1.0
		}
		return 0
	}
	matched := total - len(result.MissingTransactions)
	matchRate := float64(matched) / float64(total)

	corrupted := make(map[int]bool)
	for _, c := range result.CorruptedTransactions {
		corrupted[c.SourceIndex] = true
	}
	integrity := 1.0
	if matched > 0 {
		integrity = 1 - float64(len(corrupted))/float64(matched)
	}

	score := cfg.MatchWeight*matchRate + cfg.IntegrityWeight*integrity
	if len(result.DuplicatesInCSV) > 0 {
		score -= 0.05 * float64(len(result.DuplicatesInCSV))
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
