// Package stitch assigns tokens to canonical columns and folds baseline rows
// into transactions: wrapped multi-line descriptions are merged into the
// preceding row, amounts are sign-normalized, and transactions are grouped
// into segments at declared opening/closing balance boundaries.
package stitch

import (
	"math"
	"strings"

	"github.com/FACorreiaa/statement-pipeline/internal/detect"
	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/amount"
	"github.com/FACorreiaa/statement-pipeline/pkg/dates"
)

// AmountSignPolicy decides whether a combined amount column value is a debit
// or a credit. The exact convention varies per bank, so the policy is
// explicit configuration rather than a hardcoded rule.
type AmountSignPolicy struct {
	// TrustTextSign treats an explicit minus sign or parentheses in the
	// source text as debit intent. Checked first.
	TrustTextSign bool
	// DebitKeywords / CreditKeywords are row-level cues such as "DR"/"CR".
	// Checked after the textual sign.
	DebitKeywords  []string
	CreditKeywords []string
	// UnsignedDirection is the fallback for a positive value with no cue.
	UnsignedDirection models.ColumnType
}

// DefaultSignPolicy covers the common convention: textual sign first, then
// DR/CR style keywords, and unsigned positive values read as credits.
func DefaultSignPolicy() AmountSignPolicy {
	return AmountSignPolicy{
		TrustTextSign:     true,
		DebitKeywords:     []string{"DR", "DEBIT", "WITHDRAWAL", "ATM", "POS"},
		CreditKeywords:    []string{"CR", "CREDIT", "DEPOSIT"},
		UnsignedDirection: models.ColumnCredit,
	}
}

// Config holds the stitcher's tolerances and policies.
type Config struct {
	// RowTolerance groups tokens onto one baseline, as in detection.
	RowTolerance float64
	Sign         AmountSignPolicy
}

// DefaultConfig mirrors the detector's row tolerance.
func DefaultConfig() Config {
	return Config{
		RowTolerance: detect.DefaultConfig().RowTolerance,
		Sign:         DefaultSignPolicy(),
	}
}

// Result is the stitcher's output: the flat transaction list, the same
// transactions grouped into segments, and any structural warnings.
type Result struct {
	Transactions []models.ParsedTransaction
	Segments     []models.Segment
	Warnings     []string
}

// cells is one baseline row bucketed by canonical column role.
type cells map[models.ColumnType][]string

func (c cells) text(t models.ColumnType) string {
	return strings.Join(c[t], " ")
}

// opening/closing balance boundary phrases.
var (
	openingMarkers = []string{"opening balance", "balance brought forward", "balance b/f", "beginning balance", "start balance"}
	closingMarkers = []string{"closing balance", "balance carried forward", "balance c/f", "ending balance", "end balance"}
	headerWords    = map[string]bool{
		"date": true, "description": true, "details": true, "debit": true,
		"credit": true, "balance": true, "amount": true, "reference": true,
		"paid in": true, "paid out": true, "money in": true, "money out": true,
		"withdrawals": true, "deposits": true, "transaction": true, "particulars": true,
	}
)

// Stitcher folds token rows into transactions against a canonical layout.
type Stitcher struct {
	cfg    Config
	filter *detect.Filter
}

// NewStitcher creates a stitcher with the default boilerplate filter.
func NewStitcher(cfg Config) *Stitcher {
	return &Stitcher{cfg: cfg, filter: detect.NewFilter()}
}

// accumulator carries the fold state: the transaction still open for
// continuation rows plus everything already finalized.
type accumulator struct {
	open     *models.ParsedTransaction
	done     []models.ParsedTransaction
	segments []models.Segment
	segTxs   []models.ParsedTransaction
	opening  *float64
	closing  *float64
	warnings []string
}

// Stitch processes all pages against the canonical layout. Rows lacking a
// monetary value, a date and a balance are continuation rows: their text is
// appended to the previous transaction's description and they never surface
// as transactions of their own.
func (s *Stitcher) Stitch(pages []models.PageTokens, layout models.CanonicalLayout) Result {
	acc := &accumulator{}

	for _, page := range pages {
		for _, row := range detect.GroupRows(page.Tokens, s.cfg.RowTolerance) {
			s.foldRow(acc, row, layout, page.UsedOCR)
		}
	}
	s.finalize(acc)
	acc.closeSegment()

	if len(acc.done) == 0 {
		acc.warnings = append(acc.warnings, "no transactions stitched from detected tables")
	}
	return Result{Transactions: acc.done, Segments: acc.segments, Warnings: acc.warnings}
}

func (s *Stitcher) foldRow(acc *accumulator, row detect.Row, layout models.CanonicalLayout, usedOCR bool) {
	text := row.Text()
	if usedOCR {
		text = amount.SanitizeOCR(text)
	}
	lower := strings.ToLower(text)

	if isHeaderRow(lower) {
		return
	}
	if containsAny(lower, openingMarkers) {
		s.finalize(acc)
		acc.closeSegment()
		acc.opening = rowBalance(row, layout, usedOCR)
		return
	}
	if containsAny(lower, closingMarkers) {
		s.finalize(acc)
		acc.closing = rowBalance(row, layout, usedOCR)
		acc.closeSegment()
		return
	}

	c := s.bucket(row, layout, usedOCR)

	debit, hasDebit := amount.Parse(c.text(models.ColumnDebit))
	credit, hasCredit := amount.Parse(c.text(models.ColumnCredit))
	amt, hasAmt := amount.Parse(c.text(models.ColumnAmount))
	balance, hasBalance := amount.Parse(c.text(models.ColumnBalance))
	date := strings.TrimSpace(c.text(models.ColumnDate))
	hasDate := date != "" && dates.IsDate(date)

	hasMoney := hasDebit || hasCredit || hasAmt

	if !hasMoney && !hasDate && !hasBalance {
		// Continuation row: wrapped description text.
		if acc.open != nil {
			extra := strings.TrimSpace(c.text(models.ColumnDescription))
			if extra == "" {
				extra = strings.TrimSpace(text)
			}
			if extra != "" {
				acc.open.Description = strings.TrimSpace(acc.open.Description + " " + extra)
			}
		} else if !s.filter.IsBoilerplate(lower) && strings.TrimSpace(text) != "" {
			acc.warnings = appendOnce(acc.warnings, "text rows found before first transaction")
		}
		return
	}

	s.finalize(acc)

	tx := models.ParsedTransaction{
		Date:             date,
		Description:      strings.TrimSpace(c.text(models.ColumnDescription)),
		Reference:        strings.TrimSpace(c.text(models.ColumnReference)),
		ValidationStatus: models.StatusUnchecked,
		SourceOCR:        usedOCR,
	}
	if !hasDate && strings.TrimSpace(c.text(models.ColumnDate)) != "" {
		// Date cell held something unparseable; keep it visible.
		tx.Date = strings.TrimSpace(c.text(models.ColumnDate))
	}

	if hasDebit {
		v := math.Abs(debit)
		tx.Debit = &v
	}
	if hasCredit {
		if tx.Debit != nil {
			// Sign invariant: never both. Keep the debit, note the clash.
			tx.Notes = append(tx.Notes, "row carried both debit and credit values; credit dropped")
		} else {
			v := math.Abs(credit)
			tx.Credit = &v
		}
	}
	if hasAmt && tx.Debit == nil && tx.Credit == nil {
		v := math.Abs(amt)
		if s.cfg.Sign.direction(amt, lower) == models.ColumnDebit {
			tx.Debit = &v
		} else {
			tx.Credit = &v
		}
	}
	if hasBalance {
		tx.Balance = &balance
	}

	acc.open = &tx
}

// bucket assigns each token to the nearest canonical column by x-position.
func (s *Stitcher) bucket(row detect.Row, layout models.CanonicalLayout, usedOCR bool) cells {
	c := make(cells)
	for _, tok := range row.Tokens {
		text := tok.Text
		if usedOCR {
			text = amount.SanitizeOCR(text)
		}
		role := nearestColumn(layout, tok.X)
		c[role] = append(c[role], text)
	}
	// Tokens landing in unknown bands still belong to the narrative.
	if extra := c[models.ColumnUnknown]; len(extra) > 0 {
		c[models.ColumnDescription] = append(c[models.ColumnDescription], extra...)
		delete(c, models.ColumnUnknown)
	}
	return c
}

func nearestColumn(layout models.CanonicalLayout, x float64) models.ColumnType {
	if len(layout.Columns) == 0 {
		return models.ColumnDescription
	}
	best := layout.Columns[0].InferredType
	bestDist := math.MaxFloat64
	for _, col := range layout.Columns {
		if x >= col.LeftEdge && x <= col.RightEdge {
			return col.InferredType
		}
		if d := math.Abs(col.CenterX - x); d < bestDist {
			bestDist = d
			best = col.InferredType
		}
	}
	return best
}

// direction applies the sign policy: textual sign, then keywords, then the
// configured fallback.
func (p AmountSignPolicy) direction(value float64, rowText string) models.ColumnType {
	if p.TrustTextSign && value < 0 {
		return models.ColumnDebit
	}
	upper := strings.ToUpper(rowText)
	for _, kw := range p.DebitKeywords {
		if containsWord(upper, kw) {
			return models.ColumnDebit
		}
	}
	for _, kw := range p.CreditKeywords {
		if containsWord(upper, kw) {
			return models.ColumnCredit
		}
	}
	if p.UnsignedDirection == models.ColumnDebit {
		return models.ColumnDebit
	}
	return models.ColumnCredit
}

func (s *Stitcher) finalize(acc *accumulator) {
	if acc.open == nil {
		return
	}
	acc.done = append(acc.done, *acc.open)
	acc.segTxs = append(acc.segTxs, *acc.open)
	acc.open = nil
}

// closeSegment flushes the current segment when it holds transactions or a
// declared balance pair.
func (acc *accumulator) closeSegment() {
	if len(acc.segTxs) == 0 && acc.opening == nil && acc.closing == nil {
		return
	}
	acc.segments = append(acc.segments, models.Segment{
		Index:          len(acc.segments),
		OpeningBalance: acc.opening,
		ClosingBalance: acc.closing,
		Transactions:   acc.segTxs,
		Validation:     models.SegmentUnchecked,
	})
	acc.segTxs = nil
	acc.opening = nil
	acc.closing = nil
}

// rowBalance pulls the stated balance from a boundary marker row: the balance
// cell when present, otherwise the last amount on the row.
func rowBalance(row detect.Row, layout models.CanonicalLayout, usedOCR bool) *float64 {
	var last *float64
	for _, tok := range row.Tokens {
		text := tok.Text
		if usedOCR {
			text = amount.SanitizeOCR(text)
		}
		if bal := layout.Column(models.ColumnBalance); bal != nil {
			if tok.X >= bal.LeftEdge-1 && tok.X <= bal.RightEdge+1 {
				if v, ok := amount.Parse(text); ok {
					val := v
					return &val
				}
			}
		}
		if v, ok := amount.Parse(text); ok && amount.IsLooseAmount(text) {
			val := v
			last = &val
		}
	}
	return last
}

// isHeaderRow recognizes repeated column header rows inside the table body.
func isHeaderRow(lower string) bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool { return r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return false
	}
	hits := 0
	for _, f := range fields {
		if headerWords[f] {
			hits++
		}
	}
	return hits >= 2 && hits*2 >= len(fields)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func containsWord(upper, word string) bool {
	idx := 0
	for {
		i := strings.Index(upper[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isAlnum(upper[i-1])
		after := i+len(word) >= len(upper) || !isAlnum(upper[i+len(word)])
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isAlnum(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func appendOnce(list []string, msg string) []string {
	for _, m := range list {
		if m == msg {
			return list
		}
	}
	return append(list, msg)
}
