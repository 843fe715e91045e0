// Package dedupe merges per-file documents into one ledger and flags
// probable duplicate transactions across them. Detection is advisory: it
// never removes a row; the consuming layer decides exclusions.
package dedupe

import (
	"sort"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/dates"
)

// MergeOptions controls how per-file documents are combined.
type MergeOptions struct {
	// SortByDate orders the merged ledger by parsed transaction date.
	// The sort is stable: ties keep original file order.
	SortByDate bool
	// AddSourceColumn tags each transaction with the file it came from.
	AddSourceColumn bool
}

// Input pairs a document with the file name it was extracted from.
type Input struct {
	FileName string
	Document *models.StandardizedDocument
}

// Merge flattens the per-file documents into one StandardizedDocument.
// Segments are re-indexed in file order; the flat transaction list is
// optionally date-sorted. The merged document takes the first non-empty
// header, since a batch usually covers one account across periods.
func Merge(inputs []Input, opts MergeOptions) *models.StandardizedDocument {
	merged := &models.StandardizedDocument{}

	for _, in := range inputs {
		if in.Document == nil {
			continue
		}
		for _, seg := range in.Document.Segments {
			seg.Index = len(merged.Segments)
			if opts.AddSourceColumn {
				for i := range seg.Transactions {
					seg.Transactions[i].SourceFileName = in.FileName
				}
			}
			merged.Segments = append(merged.Segments, seg)
		}
		for _, tx := range in.Document.RawTransactions {
			if opts.AddSourceColumn {
				tx.SourceFileName = in.FileName
			}
			merged.RawTransactions = append(merged.RawTransactions, tx)
		}
		merged.TotalPages += in.Document.TotalPages
		if merged.ExtractedHeader == (models.StatementHeader{}) {
			merged.ExtractedHeader = in.Document.ExtractedHeader
		}
	}

	if opts.SortByDate {
		sort.SliceStable(merged.RawTransactions, func(i, j int) bool {
			ti, iok := dates.Parse(merged.RawTransactions[i].Date)
			tj, jok := dates.Parse(merged.RawTransactions[j].Date)
			if iok && jok {
				return ti.Before(tj)
			}
			// Unparseable dates sink to the end, preserving relative order.
			return iok && !jok
		})
	}

	merged.RecountStatuses()
	merged.OverallValidation = overallOf(inputs)
	return merged
}

func overallOf(inputs []Input) models.SegmentValidation {
	overall := models.SegmentUnchecked
	for _, in := range inputs {
		if in.Document == nil {
			continue
		}
		switch in.Document.OverallValidation {
		case models.SegmentInvalid:
			return models.SegmentInvalid
		case models.SegmentValid:
			overall = models.SegmentValid
		}
	}
	return overall
}
