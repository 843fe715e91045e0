// Package models holds the shared data model for the statement extraction
// pipeline: positioned tokens in, a validated StandardizedDocument out.
package models

// ValidationStatus is the per-transaction outcome of balance validation.
type ValidationStatus string

const (
	StatusValid     ValidationStatus = "valid"
	StatusWarning   ValidationStatus = "warning"
	StatusError     ValidationStatus = "error"
	StatusUnchecked ValidationStatus = "unchecked"
)

// ParsedTransaction is one ledger row produced by the stitcher and annotated
// by the scorer and balance validator. At most one of Debit/Credit is non-nil
// and both are always non-negative.
type ParsedTransaction struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Debit       *float64 `json:"debit"`
	Credit      *float64 `json:"credit"`
	Balance     *float64 `json:"balance"`
	Reference   string   `json:"reference,omitempty"`

	ValidationStatus ValidationStatus `json:"validationStatus"`
	ConfidenceScore  int              `json:"confidenceScore"`
	Grade            string           `json:"grade"`
	SourceFileName   string           `json:"sourceFileName,omitempty"`

	// SourceOCR marks rows built from OCR-derived tokens; their stated
	// balances are treated as low-confidence by the validator.
	SourceOCR bool `json:"sourceOcr,omitempty"`

	Notes []string `json:"notes,omitempty"`
}

// SignedAmount returns the transaction amount with debits negative and
// credits positive, and whether any amount is present at all.
func (t ParsedTransaction) SignedAmount() (float64, bool) {
	if t.Debit != nil {
		return -*t.Debit, true
	}
	if t.Credit != nil {
		return *t.Credit, true
	}
	return 0, false
}

// SegmentValidation is the outcome of the running-balance check for one segment.
type SegmentValidation string

const (
	SegmentValid     SegmentValidation = "valid"
	SegmentInvalid   SegmentValidation = "invalid"
	SegmentUnchecked SegmentValidation = "unchecked"
)

// Segment is a contiguous run of transactions sharing one declared
// opening/closing balance pair. Balance validation is scoped per segment.
type Segment struct {
	Index          int                 `json:"index"`
	OpeningBalance *float64            `json:"openingBalance"`
	ClosingBalance *float64            `json:"closingBalance"`
	Transactions   []ParsedTransaction `json:"transactions"`
	Validation     SegmentValidation   `json:"validation"`
	Discrepancy    *float64            `json:"discrepancy,omitempty"`
}

// StatementHeader holds document-level metadata harvested from the statement.
type StatementHeader struct {
	BankName            string `json:"bankName,omitempty"`
	AccountHolder       string `json:"accountHolder,omitempty"`
	AccountNumberMasked string `json:"accountNumberMasked,omitempty"`
	StatementPeriodFrom string `json:"statementPeriodFrom,omitempty"`
	StatementPeriodTo   string `json:"statementPeriodTo,omitempty"`
	Currency            string `json:"currency,omitempty"`
}

// StandardizedDocument is the complete, validated output of a single-document
// pipeline run. It is owned by that run and read-only to consumers.
type StandardizedDocument struct {
	Segments            []Segment           `json:"segments"`
	RawTransactions     []ParsedTransaction `json:"rawTransactions"`
	TotalTransactions   int                 `json:"totalTransactions"`
	ErrorTransactions   int                 `json:"errorTransactions"`
	WarningTransactions int                 `json:"warningTransactions"`
	OverallValidation   SegmentValidation   `json:"overallValidation"`
	ExtractedHeader     StatementHeader     `json:"extractedHeader"`
	TotalPages          int                 `json:"totalPages"`
}

// RecountStatuses recomputes the error/warning counters from RawTransactions.
func (d *StandardizedDocument) RecountStatuses() {
	d.TotalTransactions = len(d.RawTransactions)
	d.ErrorTransactions = 0
	d.WarningTransactions = 0
	for i := range d.RawTransactions {
		switch d.RawTransactions[i].ValidationStatus {
		case StatusError:
			d.ErrorTransactions++
		case StatusWarning:
			d.WarningTransactions++
		}
	}
}
