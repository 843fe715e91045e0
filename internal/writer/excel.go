package writer

import (
	"fmt"
	"io"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/amount"
)

const sheetName = "Transactions"

// WriteXLSX renders the document as a spreadsheet. When the extracted header
// carries a currency, monetary cells are formatted in that currency;
// otherwise plain two-decimal values are written.
func WriteXLSX(doc *models.StandardizedDocument, w io.Writer, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Date", "Description", "Debit", "Credit", "Balance", "Reference", "Status", "Grade"}
	if opts.IncludeSource {
		headers = append(headers, "Source File")
	}
	for ci, h := range headers {
		cell, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	currency := doc.ExtractedHeader.Currency
	for ri, tx := range doc.RawTransactions {
		values := []interface{}{
			tx.Date,
			tx.Description,
			formatMoney(tx.Debit, currency),
			formatMoney(tx.Credit, currency),
			formatMoney(tx.Balance, currency),
			tx.Reference,
			string(tx.ValidationStatus),
			tx.Grade,
		}
		if opts.IncludeSource {
			values = append(values, tx.SourceFileName)
		}
		for ci, v := range values {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", ri+1, err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "B", "B", 48); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// formatMoney renders a value in the statement currency when one was
// detected, falling back to plain formatting.
func formatMoney(v *float64, currency string) string {
	if v == nil {
		return ""
	}
	if currency != "" {
		if c := money.GetCurrency(currency); c != nil {
			return money.New(int64(math.Round(*v*100)), currency).Display()
		}
	}
	return amount.Format(*v)
}
