package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/statement-pipeline/internal/dedupe"
	"github.com/FACorreiaa/statement-pipeline/internal/models"
)

// BatchOptions controls a multi-file run.
type BatchOptions struct {
	// Per-file callbacks, all advisory and optional.
	OnFileProgress func(fileName string, stage models.ProcessingStage)
	OnFileComplete func(fileName string, result *models.ProcessingResult)
	OnFileError    func(fileName string, err error)

	Merge dedupe.MergeOptions
	// DuplicateDetection enables the cross-file duplicate scan on the
	// merged ledger.
	DuplicateDetection bool
	// Workers overrides the processor's bound when positive.
	Workers int
}

// ProcessBatch runs the single-document pipeline per file under a bounded
// worker pool, then merges and scans for duplicates once every file has
// finished. PDF extraction dominates the cost and is embarrassingly parallel
// across files; merging and duplicate detection need the global view and run
// single-threaded afterwards. One file's extractor failure never aborts its
// siblings. Cancellation is cooperative: no new files are submitted, but
// in-flight documents complete.
func (p *Processor) ProcessBatch(ctx context.Context, files []string, opts BatchOptions) *models.BatchProcessingResult {
	start := time.Now()
	batch := &models.BatchProcessingResult{
		Duplicates: models.DuplicateSummary{Detected: opts.DuplicateDetection, Groups: []models.DuplicateGroup{}},
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = p.cfg.Workers
	}

	results := make([]*models.ProcessingResult, len(files))
	g := &errgroup.Group{}
	g.SetLimit(workers)

	for i, file := range files {
		if ctx.Err() != nil {
			break
		}
		i, file := i, file
		g.Go(func() error {
			onStage := StageCallback(nil)
			if opts.OnFileProgress != nil {
				onStage = func(stage models.ProcessingStage) {
					opts.OnFileProgress(file, stage)
				}
			}
			result := p.ProcessFile(ctx, file, onStage)
			results[i] = result

			switch {
			case result.Success:
				if opts.OnFileComplete != nil {
					opts.OnFileComplete(file, result)
				}
			default:
				if opts.OnFileError != nil {
					opts.OnFileError(file, fmt.Errorf("processing failed: %v", result.Errors))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	var merged []dedupe.Input
	for i, file := range files {
		result := results[i]
		if result == nil {
			batch.FileStatuses = append(batch.FileStatuses, models.FileStatus{
				FileName: file,
				Error:    "cancelled before processing",
			})
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("%s: cancelled before processing", file))
			continue
		}
		status := models.FileStatus{FileName: file, Success: result.Success}
		if result.Document != nil {
			status.Transactions = result.Document.TotalTransactions
		}
		if !result.Success {
			status.Error = firstOr(result.Errors, "processing failed")
			batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %s", file, status.Error))
		} else {
			merged = append(merged, dedupe.Input{FileName: file, Document: result.Document})
		}
		batch.Warnings = append(batch.Warnings, prefixAll(file, result.Warnings)...)
		batch.FileStatuses = append(batch.FileStatuses, status)
	}

	if len(merged) > 0 {
		doc := dedupe.Merge(merged, opts.Merge)
		batch.MergedDocument = doc
		batch.TotalTransactions = doc.TotalTransactions
		batch.Success = true

		if opts.DuplicateDetection {
			groups := dedupe.Detect(doc.RawTransactions, p.cfg.Dedupe)
			flagged := 0
			for _, group := range groups {
				flagged += len(group.TransactionIndices)
			}
			batch.Duplicates.Groups = groups
			batch.Duplicates.TotalFlagged = flagged
		}
	}

	batch.TotalProcessingTime = time.Since(start)
	p.logger.Info("batch processed",
		"files", len(files),
		"succeeded", len(merged),
		"transactions", batch.TotalTransactions,
		"duplicates", batch.Duplicates.TotalFlagged,
	)
	return batch
}

func firstOr(list []string, fallback string) string {
	if len(list) > 0 {
		return list[0]
	}
	return fallback
}

func prefixAll(prefix string, list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, prefix+": "+s)
	}
	return out
}
