// Package score grades each transaction's quality on a 0-100 scale from
// field completeness, source reliability and local balance consistency.
// Scores and grades are descriptive metadata only; they never gate the
// pipeline.
package score

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/dates"
)

// Config holds the scoring weights. Weights should sum to 100; the OCR
// penalty is subtracted afterwards.
type Config struct {
	WeightDate        int
	WeightDescription int
	WeightAmount      int
	WeightBalance     int
	WeightConsistency int
	// OCRPenalty is subtracted for rows built from OCR tokens: recognition
	// noise makes every field less trustworthy.
	OCRPenalty int
	// FragmentationPenalty applies when the document produced more than
	// MaxHealthyRegions table regions.
	FragmentationPenalty int
	MaxHealthyRegions    int
	// MinDescriptionLen is the shortest description considered non-trivial.
	MinDescriptionLen int
	// Epsilon is the tolerance for the soft consistency check.
	Epsilon float64
}

// DefaultConfig returns the standard weights.
func DefaultConfig() Config {
	return Config{
		WeightDate:           25,
		WeightDescription:    20,
		WeightAmount:         30,
		WeightBalance:        10,
		WeightConsistency:    15,
		OCRPenalty:           10,
		FragmentationPenalty: 10,
		MaxHealthyRegions:    5,
		MinDescriptionLen:    3,
		Epsilon:              0.01,
	}
}

// Grade thresholds are fixed: A>=90, B>=75, C>=60, D>=40, else F.
func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	}
	return "F"
}

// Scorer computes per-transaction confidence.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given weights.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreDocument grades every transaction in place. regionCount is the number
// of table regions the detector produced across the document; heavy
// fragmentation lowers every score.
func (s *Scorer) ScoreDocument(doc *models.StandardizedDocument, regionCount int) {
	fragmented := s.cfg.MaxHealthyRegions > 0 && regionCount > s.cfg.MaxHealthyRegions

	if len(doc.Segments) == 0 {
		for i := range doc.RawTransactions {
			var prev *models.ParsedTransaction
			if i > 0 {
				prev = &doc.RawTransactions[i-1]
			}
			s.score(&doc.RawTransactions[i], prev, fragmented)
		}
		return
	}

	for si := range doc.Segments {
		seg := &doc.Segments[si]
		for ti := range seg.Transactions {
			var prev *models.ParsedTransaction
			if ti > 0 {
				prev = &seg.Transactions[ti-1]
			}
			s.score(&seg.Transactions[ti], prev, fragmented)
		}
	}

	// Mirror segment scores onto the flat list, matching by order, so both
	// views agree. The consistency baseline resets at every segment start;
	// walking the flat list directly would cross segment boundaries.
	idx := 0
	for si := range doc.Segments {
		for ti := range doc.Segments[si].Transactions {
			if idx < len(doc.RawTransactions) {
				src := doc.Segments[si].Transactions[ti]
				doc.RawTransactions[idx].ConfidenceScore = src.ConfidenceScore
				doc.RawTransactions[idx].Grade = src.Grade
			}
			idx++
		}
	}
}

func (s *Scorer) score(tx, prev *models.ParsedTransaction, fragmented bool) {
	total := 0

	if _, ok := dates.Parse(tx.Date); ok {
		total += s.cfg.WeightDate
	}
	if len(tx.Description) >= s.cfg.MinDescriptionLen {
		total += s.cfg.WeightDescription
	}
	// Rows carry a debit or a credit, never both (the stitcher enforces
	// that); a stated balance alone earns half the weight.
	switch {
	case tx.Debit != nil || tx.Credit != nil:
		total += s.cfg.WeightAmount
	case tx.Balance != nil:
		total += s.cfg.WeightAmount / 2
	}
	if tx.Balance != nil {
		total += s.cfg.WeightBalance
	}
	total += s.consistency(tx, prev)

	if tx.SourceOCR {
		total -= s.cfg.OCRPenalty
	}
	if fragmented {
		total -= s.cfg.FragmentationPenalty
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	tx.ConfidenceScore = total
	tx.Grade = gradeFor(total)
}

// consistency is a soft signal tested before the formal balance validator
// runs: does this row's stated balance arithmetically follow from the
// previous row's? Missing data earns half credit rather than a fail.
func (s *Scorer) consistency(tx, prev *models.ParsedTransaction) int {
	if prev == nil || prev.Balance == nil || tx.Balance == nil {
		return s.cfg.WeightConsistency / 2
	}
	delta, ok := tx.SignedAmount()
	if !ok {
		return s.cfg.WeightConsistency / 2
	}
	expected := decimal.NewFromFloat(*prev.Balance).Add(decimal.NewFromFloat(delta))
	diff := expected.Sub(decimal.NewFromFloat(*tx.Balance)).Abs()
	if diff.LessThanOrEqual(decimal.NewFromFloat(s.cfg.Epsilon)) {
		return s.cfg.WeightConsistency
	}
	return 0
}
