package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-pipeline/internal/extract"
	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/internal/pipeline"
	"github.com/FACorreiaa/statement-pipeline/internal/writer"
)

func newVerifyExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-export <statement.pdf | tokens.json> <export.csv>",
		Short: "Reconcile an exported CSV against the source statement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, _ := newProcessor()
			source, exportPath := args[0], args[1]

			var result *models.ProcessingResult
			if strings.HasSuffix(strings.ToLower(source), ".json") {
				pages, err := extract.ReadTokenDumpFile(source)
				if err != nil {
					return err
				}
				result = processor.ProcessDocument(cmd.Context(), source, pages, nil)
			} else {
				result = processor.ProcessFile(cmd.Context(), source, nil)
			}
			if !result.Success {
				return fmt.Errorf("processing %s failed: %s", source, strings.Join(result.Errors, "; "))
			}

			rows, err := readExportFile(exportPath)
			if err != nil {
				return err
			}

			report := processor.ValidateExport(result.Document.RawTransactions, rows)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if report.Verdict != models.VerdictExportComplete {
				return fmt.Errorf("export is incomplete: %d missing, %d corrupted",
					len(report.MissingTransactions), len(report.CorruptedTransactions))
			}
			return nil
		},
	}
	return cmd
}

// verifyAgainst reconciles a just-written CSV with the document it was
// rendered from, failing when the export dropped or altered rows.
func verifyAgainst(processor *pipeline.Processor, doc *models.StandardizedDocument, csvPath string) error {
	rows, err := readExportFile(csvPath)
	if err != nil {
		return err
	}
	report := processor.ValidateExport(doc.RawTransactions, rows)
	if report.Verdict != models.VerdictExportComplete {
		return fmt.Errorf("export verification failed for %s: %d missing, %d corrupted",
			csvPath, len(report.MissingTransactions), len(report.CorruptedTransactions))
	}
	return nil
}

func readExportFile(path string) ([]models.ExportedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return writer.ReadExportedCSV(f)
}
