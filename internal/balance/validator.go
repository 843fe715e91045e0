// Package balance verifies the running-balance invariant per segment:
// running = running - debit + credit after every row, and
// opening + sum(credits) - sum(debits) = closing for the whole segment.
// Arithmetic uses decimals throughout; float drift must never fail a
// statement that balances to the penny.
package balance

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
)

// Config holds the validator's tolerance.
type Config struct {
	// Epsilon is the currency rounding tolerance for balance comparisons.
	Epsilon float64
}

// DefaultConfig uses one cent of tolerance.
func DefaultConfig() Config {
	return Config{Epsilon: 0.01}
}

// Validator checks running balances against stated ones.
type Validator struct {
	eps decimal.Decimal
}

// NewValidator creates a validator with the given config.
func NewValidator(cfg Config) *Validator {
	return &Validator{eps: decimal.NewFromFloat(cfg.Epsilon)}
}

// ValidateDocument walks every segment, marks row statuses, sets segment
// validation outcomes and derives the document-level overall validation.
// Mismatches never halt anything: a statement pipeline must produce
// something reviewable even from imperfect input.
func (v *Validator) ValidateDocument(doc *models.StandardizedDocument) {
	overall := models.SegmentValid
	anyChecked := false

	for si := range doc.Segments {
		seg := &doc.Segments[si]
		v.validateSegment(seg)
		switch seg.Validation {
		case models.SegmentInvalid:
			overall = models.SegmentInvalid
		case models.SegmentValid:
			anyChecked = true
		}
	}

	// Mirror row statuses onto the flat list so both views agree.
	v.syncRawStatuses(doc)
	doc.RecountStatuses()

	if doc.ErrorTransactions > 0 {
		overall = models.SegmentInvalid
	} else if !anyChecked && overall == models.SegmentValid {
		overall = models.SegmentUnchecked
	}
	doc.OverallValidation = overall
}

// validateSegment runs the per-row walk and the closure check. A segment is
// valid only when opening + credits - debits equals closing within epsilon
// AND no row-level errors exist.
func (v *Validator) validateSegment(seg *models.Segment) {
	var running decimal.Decimal
	tracking := seg.OpeningBalance != nil
	if tracking {
		running = decimal.NewFromFloat(*seg.OpeningBalance)
	}

	rowErrors := 0
	for i := range seg.Transactions {
		tx := &seg.Transactions[i]
		if tx.ValidationStatus == models.StatusUnchecked {
			tx.ValidationStatus = models.StatusValid
		}

		delta, hasAmount := signedDecimal(tx)
		if !hasAmount {
			tx.ValidationStatus = models.StatusWarning
			tx.Notes = append(tx.Notes, "no debit or credit amount on row")
		}

		if !tracking {
			continue
		}
		running = running.Add(delta)

		if tx.Balance == nil {
			continue
		}
		stated := decimal.NewFromFloat(*tx.Balance)
		diff := running.Sub(stated).Abs()
		if diff.LessThanOrEqual(v.eps) {
			// Re-anchor on the stated balance so one early mismatch does
			// not cascade down the segment.
			running = stated
			continue
		}
		if tx.SourceOCR {
			// Low-confidence stated balance: projected arithmetic only.
			tx.ValidationStatus = models.StatusWarning
		} else {
			tx.ValidationStatus = models.StatusError
			rowErrors++
		}
		tx.Notes = append(tx.Notes, "stated balance deviates from running balance by "+diff.StringFixed(2))
		running = stated
	}

	if !tracking || seg.ClosingBalance == nil {
		seg.Validation = models.SegmentUnchecked
		if rowErrors > 0 {
			seg.Validation = models.SegmentInvalid
		}
		return
	}

	expected := decimal.NewFromFloat(*seg.OpeningBalance)
	for i := range seg.Transactions {
		delta, _ := signedDecimal(&seg.Transactions[i])
		expected = expected.Add(delta)
	}
	closing := decimal.NewFromFloat(*seg.ClosingBalance)
	discrepancy := expected.Sub(closing)

	if discrepancy.Abs().LessThanOrEqual(v.eps) && rowErrors == 0 {
		seg.Validation = models.SegmentValid
		return
	}
	seg.Validation = models.SegmentInvalid
	if !discrepancy.Abs().LessThanOrEqual(v.eps) {
		d, _ := discrepancy.Abs().Float64()
		seg.Discrepancy = &d
	}
}

// syncRawStatuses copies segment row statuses back onto the flat transaction
// list, matching by order.
func (v *Validator) syncRawStatuses(doc *models.StandardizedDocument) {
	idx := 0
	for si := range doc.Segments {
		for ti := range doc.Segments[si].Transactions {
			if idx < len(doc.RawTransactions) {
				src := doc.Segments[si].Transactions[ti]
				doc.RawTransactions[idx].ValidationStatus = src.ValidationStatus
				doc.RawTransactions[idx].Notes = src.Notes
			}
			idx++
		}
	}
}

func signedDecimal(tx *models.ParsedTransaction) (decimal.Decimal, bool) {
	if tx.Debit != nil {
		return decimal.NewFromFloat(*tx.Debit).Neg(), true
	}
	if tx.Credit != nil {
		return decimal.NewFromFloat(*tx.Credit), true
	}
	return decimal.Zero, false
}
