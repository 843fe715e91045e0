package exportcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
)

func fptr(v float64) *float64 { return &v }

func sourceTransactions() []models.ParsedTransaction {
	return []models.ParsedTransaction{
		{Date: "01/02/2024", Description: "CARD PAYMENT TO ACME", Debit: fptr(50), Balance: fptr(950)},
		{Date: "02/02/2024", Description: "SALARY FEBRUARY", Credit: fptr(2000), Balance: fptr(2950)},
		{Date: "03/02/2024", Description: "GROCERIES", Debit: fptr(75.50), Balance: fptr(2874.50)},
	}
}

func exportedRows() []models.ExportedRow {
	return []models.ExportedRow{
		{Date: "01/02/2024", Description: "CARD PAYMENT TO ACME", Debit: "50.00", Balance: "950.00"},
		{Date: "02/02/2024", Description: "SALARY FEBRUARY", Credit: "2000.00", Balance: "2950.00"},
		{Date: "03/02/2024", Description: "GROCERIES", Debit: "75.50", Balance: "2874.50"},
	}
}

func TestValidateExport_RoundTrip(t *testing.T) {
	result := ValidateExport(sourceTransactions(), exportedRows(), DefaultConfig())

	assert.Equal(t, models.VerdictExportComplete, result.Verdict)
	assert.Empty(t, result.MissingTransactions)
	assert.Empty(t, result.CorruptedTransactions)
	assert.Empty(t, result.DuplicatesInCSV)
	assert.Equal(t, 3, result.ExportValidation.PDFTransactions)
	assert.Equal(t, 3, result.ExportValidation.ExportedRows)
	assert.InDelta(t, 1.0, result.ConfidenceScore, 0.001)
}

func TestValidateExport_MissingRow(t *testing.T) {
	rows := exportedRows()[:2] // third transaction never exported

	result := ValidateExport(sourceTransactions(), rows, DefaultConfig())

	assert.Equal(t, models.VerdictExportIncomplete, result.Verdict)
	require.Len(t, result.MissingTransactions, 1)
	missing := result.MissingTransactions[0]
	assert.Equal(t, 2, missing.SourceIndex)
	assert.Equal(t, "GROCERIES", missing.Description)
	require.NotNil(t, missing.Amount)
	assert.InDelta(t, -75.50, *missing.Amount, 0.001)
	assert.Less(t, result.ConfidenceScore, 0.95)
}

func TestValidateExport_CorruptedFields(t *testing.T) {
	t.Run("balance drift", func(t *testing.T) {
		rows := exportedRows()
		rows[0].Balance = "999.00"

		result := ValidateExport(sourceTransactions(), rows, DefaultConfig())
		assert.Equal(t, models.VerdictExportComplete, result.Verdict)
		require.Len(t, result.CorruptedTransactions, 1)
		assert.Equal(t, "balance", result.CorruptedTransactions[0].Field)
		assert.Equal(t, "950.00", result.CorruptedTransactions[0].SourceValue)
		assert.Equal(t, "999.00", result.CorruptedTransactions[0].ExportedValue)
		assert.Less(t, result.ConfidenceScore, 1.0)
	})

	t.Run("truncated description still matches but is flagged", func(t *testing.T) {
		rows := exportedRows()
		rows[0].Description = "CARD PAYMENT"

		result := ValidateExport(sourceTransactions(), rows, DefaultConfig())
		assert.Equal(t, models.VerdictExportComplete, result.Verdict)
		require.Len(t, result.CorruptedTransactions, 1)
		assert.Equal(t, "description", result.CorruptedTransactions[0].Field)
	})

	t.Run("formatting differences are not corruption", func(t *testing.T) {
		rows := exportedRows()
		rows[1].Date = "2024-02-02" // same date, ISO form
		rows[1].Description = "salary february"

		result := ValidateExport(sourceTransactions(), rows, DefaultConfig())
		assert.Empty(t, result.CorruptedTransactions)
		assert.Equal(t, models.VerdictExportComplete, result.Verdict)
	})
}

func TestValidateExport_ExtraRows(t *testing.T) {
	t.Run("alien row flagged", func(t *testing.T) {
		rows := append(exportedRows(), models.ExportedRow{
			Date: "09/02/2024", Description: "NOT IN SOURCE", Debit: "10.00",
		})
		result := ValidateExport(sourceTransactions(), rows, DefaultConfig())
		require.Len(t, result.DuplicatesInCSV, 1)
		assert.Equal(t, 3, result.DuplicatesInCSV[0].RowIndex)
		assert.Equal(t, "no matching source transaction", result.DuplicatesInCSV[0].Reason)
		assert.Equal(t, models.VerdictExportComplete, result.Verdict)
	})

	t.Run("repeated row flagged as duplicate", func(t *testing.T) {
		rows := exportedRows()
		rows = append(rows, rows[0])
		result := ValidateExport(sourceTransactions(), rows, DefaultConfig())
		require.Len(t, result.DuplicatesInCSV, 1)
		assert.Equal(t, "duplicates another exported row", result.DuplicatesInCSV[0].Reason)
	})
}

func TestValidateExport_Empty(t *testing.T) {
	t.Run("nothing to export round-trips clean", func(t *testing.T) {
		result := ValidateExport(nil, nil, DefaultConfig())
		assert.Equal(t, models.VerdictExportComplete, result.Verdict)
		assert.InDelta(t, 1.0, result.ConfidenceScore, 0.001)
	})

	t.Run("rows with no source are all suspect", func(t *testing.T) {
		result := ValidateExport(nil, exportedRows(), DefaultConfig())
		assert.Len(t, result.DuplicatesInCSV, 3)
		assert.Equal(t, 0.0, result.ConfidenceScore)
	})
}
