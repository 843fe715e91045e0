package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
)

func fptr(v float64) *float64 { return &v }

func fullTx(date, desc string, debit, balance float64) models.ParsedTransaction {
	return models.ParsedTransaction{
		Date:        date,
		Description: desc,
		Debit:       fptr(debit),
		Balance:     fptr(balance),
	}
}

func docOf(txs ...models.ParsedTransaction) *models.StandardizedDocument {
	return &models.StandardizedDocument{
		Segments:        []models.Segment{{Transactions: txs}},
		RawTransactions: txs,
	}
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"},
		{89, "B"}, {75, "B"},
		{74, "C"}, {60, "C"},
		{59, "D"}, {40, "D"},
		{39, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gradeFor(tt.score), "score %d", tt.score)
	}
}

func TestScoreDocument(t *testing.T) {
	s := NewScorer(DefaultConfig())

	t.Run("complete consistent rows grade A", func(t *testing.T) {
		doc := docOf(
			fullTx("01/02/2024", "CARD PAYMENT", 50, 950),
			fullTx("02/02/2024", "GROCERIES", 50, 900),
		)
		s.ScoreDocument(doc, 1)

		// Second row: every field present and balance follows from the
		// previous row, so every weight lands.
		assert.Equal(t, 100, doc.RawTransactions[1].ConfidenceScore)
		assert.Equal(t, "A", doc.RawTransactions[1].Grade)

		// First row has no predecessor; consistency earns half credit.
		assert.Equal(t, 92, doc.RawTransactions[0].ConfidenceScore)
		assert.Equal(t, "A", doc.RawTransactions[0].Grade)
	})

	t.Run("inconsistent balance drops the consistency weight", func(t *testing.T) {
		doc := docOf(
			fullTx("01/02/2024", "CARD PAYMENT", 50, 950),
			fullTx("02/02/2024", "GROCERIES", 50, 750),
		)
		s.ScoreDocument(doc, 1)
		assert.Equal(t, 85, doc.RawTransactions[1].ConfidenceScore)
		assert.Equal(t, "B", doc.RawTransactions[1].Grade)
	})

	t.Run("missing fields lose their weights", func(t *testing.T) {
		doc := docOf(models.ParsedTransaction{Description: "SOMETHING"})
		s.ScoreDocument(doc, 1)
		// Description 20 plus half consistency 7: no date, no amount, no balance.
		assert.Equal(t, 27, doc.RawTransactions[0].ConfidenceScore)
		assert.Equal(t, "F", doc.RawTransactions[0].Grade)
	})

	t.Run("balance-only row earns half the amount weight", func(t *testing.T) {
		doc := docOf(models.ParsedTransaction{
			Date: "01/02/2024", Description: "BALANCE ROW", Balance: fptr(1000),
		})
		s.ScoreDocument(doc, 1)
		// 25 date + 20 description + 15 half-amount + 10 balance + 7 consistency.
		assert.Equal(t, 77, doc.RawTransactions[0].ConfidenceScore)
	})

	t.Run("ocr rows are penalized", func(t *testing.T) {
		clean := docOf(fullTx("01/02/2024", "CARD PAYMENT", 50, 950))
		ocr := docOf(fullTx("01/02/2024", "CARD PAYMENT", 50, 950))
		ocr.RawTransactions[0].SourceOCR = true
		ocr.Segments[0].Transactions[0].SourceOCR = true

		s.ScoreDocument(clean, 1)
		s.ScoreDocument(ocr, 1)
		assert.Equal(t,
			clean.RawTransactions[0].ConfidenceScore-DefaultConfig().OCRPenalty,
			ocr.RawTransactions[0].ConfidenceScore)
	})

	t.Run("fragmented documents are penalized", func(t *testing.T) {
		healthy := docOf(fullTx("01/02/2024", "CARD PAYMENT", 50, 950))
		fragmented := docOf(fullTx("01/02/2024", "CARD PAYMENT", 50, 950))

		s.ScoreDocument(healthy, 5)
		s.ScoreDocument(fragmented, 6)
		assert.Equal(t,
			healthy.RawTransactions[0].ConfidenceScore-DefaultConfig().FragmentationPenalty,
			fragmented.RawTransactions[0].ConfidenceScore)
	})

	t.Run("segment boundaries reset the consistency baseline", func(t *testing.T) {
		// The second segment's first transaction would look inconsistent
		// against the first segment's closing row (950 - 50 != 750); its
		// score must not depend on the previous segment.
		doc := &models.StandardizedDocument{
			Segments: []models.Segment{
				{Transactions: []models.ParsedTransaction{fullTx("01/02/2024", "CARD PAYMENT", 50, 950)}},
				{Index: 1, Transactions: []models.ParsedTransaction{fullTx("02/02/2024", "GROCERIES", 50, 750)}},
			},
			RawTransactions: []models.ParsedTransaction{
				fullTx("01/02/2024", "CARD PAYMENT", 50, 950),
				fullTx("02/02/2024", "GROCERIES", 50, 750),
			},
		}
		s.ScoreDocument(doc, 1)

		assert.Equal(t, 92, doc.Segments[1].Transactions[0].ConfidenceScore)
		assert.Equal(t, 92, doc.RawTransactions[1].ConfidenceScore)
		assert.Equal(t, doc.Segments[1].Transactions[0].Grade, doc.RawTransactions[1].Grade)
	})

	t.Run("segment and flat views agree", func(t *testing.T) {
		doc := docOf(
			fullTx("01/02/2024", "CARD PAYMENT", 50, 950),
			fullTx("02/02/2024", "GROCERIES", 50, 900),
		)
		s.ScoreDocument(doc, 1)
		require.Len(t, doc.Segments[0].Transactions, 2)
		for i := range doc.RawTransactions {
			assert.Equal(t, doc.Segments[0].Transactions[i].ConfidenceScore, doc.RawTransactions[i].ConfidenceScore)
			assert.Equal(t, doc.Segments[0].Transactions[i].Grade, doc.RawTransactions[i].Grade)
		}
	})

	t.Run("score never goes negative", func(t *testing.T) {
		doc := docOf(models.ParsedTransaction{SourceOCR: true})
		s.ScoreDocument(doc, 10)
		assert.Equal(t, 0, doc.RawTransactions[0].ConfidenceScore)
		assert.Equal(t, "F", doc.RawTransactions[0].Grade)
	})
}
