// Package writer renders a StandardizedDocument to export files (CSV, XLSX)
// and reads exported CSV rows back for reconciliation.
package writer

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/amount"
)

// Options controls the rendered export.
type Options struct {
	// IncludeSource adds a source_file column, used for merged batch exports.
	IncludeSource bool
}

// WriteCSV renders the document's flat transaction list. Amounts are written
// with two decimal places, debits and credits in separate columns, matching
// the ExportedRow shape the export validator reads back.
func WriteCSV(doc *models.StandardizedDocument, w io.Writer, opts Options) error {
	rows := buildRows(doc, opts)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadExportedCSV parses rows previously written by WriteCSV (or any export
// with compatible headers) for reconciliation against the source document.
func ReadExportedCSV(r io.Reader) ([]models.ExportedRow, error) {
	var rows []models.ExportedRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read exported csv: %w", err)
	}
	return rows, nil
}

func buildRows(doc *models.StandardizedDocument, opts Options) []models.ExportedRow {
	rows := make([]models.ExportedRow, 0, len(doc.RawTransactions))
	for _, tx := range doc.RawTransactions {
		row := models.ExportedRow{
			Date:        tx.Date,
			Description: tx.Description,
			Reference:   tx.Reference,
		}
		if tx.Debit != nil {
			row.Debit = amount.Format(*tx.Debit)
		}
		if tx.Credit != nil {
			row.Credit = amount.Format(*tx.Credit)
		}
		if tx.Balance != nil {
			row.Balance = amount.Format(*tx.Balance)
		}
		if opts.IncludeSource {
			row.SourceFile = tx.SourceFileName
		}
		rows = append(rows, row)
	}
	return rows
}
