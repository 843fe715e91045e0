package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-pipeline/internal/extract"
	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/internal/writer"
)

func newProcessCmd() *cobra.Command {
	var (
		csvOut  string
		xlsxOut string
		verify  bool
	)

	cmd := &cobra.Command{
		Use:   "process <statement.pdf | tokens.json>",
		Short: "Extract and validate transactions from one statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, _ := newProcessor()
			input := args[0]

			onStage := func(stage models.ProcessingStage) {
				fmt.Fprintf(cmd.ErrOrStderr(), "  [%s] %d%% %s\n", stage.Stage, stage.Progress, stage.Message)
			}

			var result *models.ProcessingResult
			if strings.HasSuffix(strings.ToLower(input), ".json") {
				pages, err := extract.ReadTokenDumpFile(input)
				if err != nil {
					return err
				}
				result = processor.ProcessDocument(cmd.Context(), input, pages, onStage)
			} else {
				result = processor.ProcessFile(cmd.Context(), input, onStage)
			}

			if !result.Success {
				return fmt.Errorf("processing failed: %s", strings.Join(result.Errors, "; "))
			}
			doc := result.Document

			if csvOut != "" {
				if err := writeCSVFile(doc, csvOut); err != nil {
					return err
				}
				if verify {
					if err := verifyAgainst(processor, doc, csvOut); err != nil {
						return err
					}
				}
			}
			if xlsxOut != "" {
				if err := writeXLSXFile(doc, xlsxOut); err != nil {
					return err
				}
			}
			if csvOut == "" && xlsxOut == "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d transactions, validation %s\n",
				doc.TotalTransactions, doc.OverallValidation)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvOut, "csv", "", "write transactions to a CSV file")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "write transactions to an XLSX file")
	cmd.Flags().BoolVar(&verify, "verify", true, "reconcile the written CSV against the extraction before finishing")
	return cmd
}

func writeCSVFile(doc *models.StandardizedDocument, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writer.WriteCSV(doc, f, writer.Options{})
}

func writeXLSXFile(doc *models.StandardizedDocument, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writer.WriteXLSX(doc, f, writer.Options{})
}
