package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
)

func fptr(v float64) *float64 { return &v }

func tx(date, desc string, debitAmt float64, source string) models.ParsedTransaction {
	return models.ParsedTransaction{
		Date:           date,
		Description:    desc,
		Debit:          fptr(debitAmt),
		SourceFileName: source,
	}
}

func TestDetect(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("identical transactions across files group", func(t *testing.T) {
		txs := []models.ParsedTransaction{
			tx("01/02/2024", "COFFEE SHOP", 4.50, "jan.pdf"),
			tx("01/02/2024", "COFFEE SHOP", 4.50, "feb.pdf"),
		}
		groups := Detect(txs, cfg)
		require.Len(t, groups, 1)
		assert.Equal(t, []int{0, 1}, groups[0].TransactionIndices)
		assert.Equal(t, []string{"feb.pdf", "jan.pdf"}, groups[0].SourceFiles)
		// Exact descriptions across two files is the strongest signal.
		assert.InDelta(t, 1.0, groups[0].Confidence, 0.001)
	})

	t.Run("transitive matches land in a single group", func(t *testing.T) {
		txs := []models.ParsedTransaction{
			tx("01/02/2024", "COFFEE SHOP LONDON BRANCH", 4.50, "a.pdf"),
			tx("01/02/2024", "COFFEE SHOP LONDON", 4.50, "a.pdf"),
			tx("01/02/2024", "COFFEE SHOP", 4.50, "b.pdf"),
		}
		groups := Detect(txs, cfg)
		require.Len(t, groups, 1)
		assert.Equal(t, []int{0, 1, 2}, groups[0].TransactionIndices)
	})

	t.Run("different amounts never group", func(t *testing.T) {
		txs := []models.ParsedTransaction{
			tx("01/02/2024", "COFFEE SHOP", 4.50, "a.pdf"),
			tx("01/02/2024", "COFFEE SHOP", 5.50, "b.pdf"),
		}
		assert.Empty(t, Detect(txs, cfg))
	})

	t.Run("debit and credit of the same value never group", func(t *testing.T) {
		txs := []models.ParsedTransaction{
			tx("01/02/2024", "TRANSFER", 100, "a.pdf"),
			{Date: "01/02/2024", Description: "TRANSFER", Credit: fptr(100), SourceFileName: "b.pdf"},
		}
		assert.Empty(t, Detect(txs, cfg))
	})

	t.Run("dissimilar descriptions never group", func(t *testing.T) {
		txs := []models.ParsedTransaction{
			tx("01/02/2024", "COFFEE SHOP", 4.50, "a.pdf"),
			tx("01/02/2024", "RAILWAY TICKET", 4.50, "b.pdf"),
		}
		assert.Empty(t, Detect(txs, cfg))
	})

	t.Run("dates match across formats", func(t *testing.T) {
		txs := []models.ParsedTransaction{
			tx("01/02/2024", "COFFEE SHOP", 4.50, "a.pdf"),
			tx("2024-02-01", "COFFEE SHOP", 4.50, "b.pdf"),
		}
		assert.Len(t, Detect(txs, cfg), 1)
	})

	t.Run("rows without amounts are skipped", func(t *testing.T) {
		txs := []models.ParsedTransaction{
			{Date: "01/02/2024", Description: "NOTICE"},
			{Date: "01/02/2024", Description: "NOTICE"},
		}
		assert.Empty(t, Detect(txs, cfg))
	})

	t.Run("fewer than two transactions", func(t *testing.T) {
		assert.Nil(t, Detect([]models.ParsedTransaction{tx("01/02/2024", "X", 1, "")}, cfg))
		assert.Nil(t, Detect(nil, cfg))
	})

	t.Run("same-file duplicates score lower than cross-file", func(t *testing.T) {
		sameFile := Detect([]models.ParsedTransaction{
			tx("01/02/2024", "COFFEE SHOP", 4.50, "a.pdf"),
			tx("01/02/2024", "COFFEE SHOP", 4.50, "a.pdf"),
		}, cfg)
		crossFile := Detect([]models.ParsedTransaction{
			tx("01/02/2024", "COFFEE SHOP", 4.50, "a.pdf"),
			tx("01/02/2024", "COFFEE SHOP", 4.50, "b.pdf"),
		}, cfg)
		require.Len(t, sameFile, 1)
		require.Len(t, crossFile, 1)
		assert.Less(t, sameFile[0].Confidence, crossFile[0].Confidence)
	})
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  int
		max  int
	}{
		{"exact", "COFFEE SHOP", "COFFEE SHOP", 100, 100},
		{"case insensitive exact", "coffee shop", "COFFEE SHOP", 100, 100},
		{"containment", "COFFEE SHOP LONDON", "COFFEE SHOP", 75, 99},
		{"near match", "COFFEE SHOP", "COFFEE SHOPS", 80, 99},
		{"unrelated", "COFFEE SHOP", "RAILWAY TICKET", 0, 40},
		{"empty side", "COFFEE SHOP", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestMerge(t *testing.T) {
	docA := &models.StandardizedDocument{
		Segments: []models.Segment{{Index: 0, Transactions: []models.ParsedTransaction{
			{Date: "03/02/2024", Description: "LATER"},
		}}},
		RawTransactions: []models.ParsedTransaction{{Date: "03/02/2024", Description: "LATER"}},
		TotalPages:      2,
		ExtractedHeader: models.StatementHeader{BankName: "Metro Bank"},
	}
	docB := &models.StandardizedDocument{
		Segments: []models.Segment{{Index: 0, Transactions: []models.ParsedTransaction{
			{Date: "01/02/2024", Description: "EARLIER"},
		}}},
		RawTransactions: []models.ParsedTransaction{{Date: "01/02/2024", Description: "EARLIER"}},
		TotalPages:      1,
	}

	t.Run("flattens and re-indexes segments", func(t *testing.T) {
		merged := Merge([]Input{{FileName: "a.pdf", Document: docA}, {FileName: "b.pdf", Document: docB}}, MergeOptions{})
		require.Len(t, merged.Segments, 2)
		assert.Equal(t, 0, merged.Segments[0].Index)
		assert.Equal(t, 1, merged.Segments[1].Index)
		assert.Equal(t, 2, merged.TotalTransactions)
		assert.Equal(t, 3, merged.TotalPages)
		assert.Equal(t, "Metro Bank", merged.ExtractedHeader.BankName)
	})

	t.Run("sorts by parsed date when asked", func(t *testing.T) {
		merged := Merge([]Input{{FileName: "a.pdf", Document: docA}, {FileName: "b.pdf", Document: docB}},
			MergeOptions{SortByDate: true})
		require.Len(t, merged.RawTransactions, 2)
		assert.Equal(t, "EARLIER", merged.RawTransactions[0].Description)
		assert.Equal(t, "LATER", merged.RawTransactions[1].Description)
	})

	t.Run("unparseable dates sink to the end", func(t *testing.T) {
		docC := &models.StandardizedDocument{
			RawTransactions: []models.ParsedTransaction{{Date: "pending", Description: "NO DATE"}},
		}
		merged := Merge([]Input{{FileName: "c.pdf", Document: docC}, {FileName: "a.pdf", Document: docA}},
			MergeOptions{SortByDate: true})
		require.Len(t, merged.RawTransactions, 2)
		assert.Equal(t, "NO DATE", merged.RawTransactions[1].Description)
	})

	t.Run("source column tags every transaction", func(t *testing.T) {
		merged := Merge([]Input{{FileName: "a.pdf", Document: docA}}, MergeOptions{AddSourceColumn: true})
		assert.Equal(t, "a.pdf", merged.RawTransactions[0].SourceFileName)
		assert.Equal(t, "a.pdf", merged.Segments[0].Transactions[0].SourceFileName)
	})

	t.Run("nil documents skipped", func(t *testing.T) {
		merged := Merge([]Input{{FileName: "x.pdf"}, {FileName: "a.pdf", Document: docA}}, MergeOptions{})
		assert.Equal(t, 1, merged.TotalTransactions)
	})
}
