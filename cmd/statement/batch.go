package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-pipeline/internal/dedupe"
	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/internal/pipeline"
	"github.com/FACorreiaa/statement-pipeline/internal/writer"
)

func newBatchCmd() *cobra.Command {
	var (
		csvOut       string
		workers      int
		sortByDate   bool
		sourceColumn bool
		detectDupes  bool
	)

	cmd := &cobra.Command{
		Use:   "batch <dir | files...>",
		Short: "Process multiple statements and merge them into one ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, cfg := newProcessor()

			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no statement files found")
			}

			opts := pipeline.BatchOptions{
				Merge: dedupe.MergeOptions{
					SortByDate:      sortByDate || cfg.Pipeline.SortBatchByDate,
					AddSourceColumn: sourceColumn,
				},
				DuplicateDetection: detectDupes,
				Workers:            workers,
				OnFileComplete: func(fileName string, result *models.ProcessingResult) {
					fmt.Fprintf(cmd.ErrOrStderr(), "  done %s (%d transactions)\n",
						fileName, result.Document.TotalTransactions)
				},
				OnFileError: func(fileName string, err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "  FAIL %s: %v\n", fileName, err)
				},
			}

			batch := processor.ProcessBatch(cmd.Context(), files, opts)
			if !batch.Success {
				return fmt.Errorf("no files processed successfully: %s", strings.Join(batch.Errors, "; "))
			}

			if csvOut != "" {
				f, err := os.Create(csvOut)
				if err != nil {
					return fmt.Errorf("create %s: %w", csvOut, err)
				}
				defer f.Close()
				if err := writer.WriteCSV(batch.MergedDocument, f, writer.Options{IncludeSource: sourceColumn}); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d transactions, %d duplicate groups\n",
				len(batch.FileStatuses), batch.TotalTransactions, len(batch.Duplicates.Groups))
			for _, group := range batch.Duplicates.Groups {
				fmt.Fprintf(cmd.OutOrStdout(), "  duplicate (%.0f%%): %s\n", group.Confidence*100, group.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvOut, "csv", "", "write the merged ledger to a CSV file")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent files (0 = configured default)")
	cmd.Flags().BoolVar(&sortByDate, "sort", false, "sort merged transactions by date")
	cmd.Flags().BoolVar(&sourceColumn, "source-column", true, "tag each transaction with its source file")
	cmd.Flags().BoolVar(&detectDupes, "duplicates", true, "flag probable duplicates across files")
	return cmd
}

// collectFiles expands directory arguments into the statement files inside.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext == ".pdf" || ext == ".json" {
				files = append(files, filepath.Join(arg, entry.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
