package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage names are a stable contract with the consuming UI. Do not rename.
const (
	StageUpload   = "upload"
	StageExtract  = "extract"
	StageAnchor   = "anchor"
	StageStitch   = "stitch"
	StageValidate = "validate"
	StageOutput   = "output"
)

// ProcessingStage is one progress event emitted as a pipeline stage completes.
type ProcessingStage struct {
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
}

// ProcessingResult is the envelope returned for a single-document run.
// Document content is deterministic for identical token input; only the
// RunID and timing vary between runs.
type ProcessingResult struct {
	RunID    uuid.UUID             `json:"runId"`
	Success  bool                  `json:"success"`
	FileName string                `json:"fileName,omitempty"`
	Document *StandardizedDocument `json:"document,omitempty"`
	Errors   []string              `json:"errors,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
	Stages   []ProcessingStage     `json:"stages"`

	ColumnConflicts []ColumnConflict `json:"columnConflicts,omitempty"`
	ProcessingTime  time.Duration    `json:"processingTime"`
}

// DuplicateGroup flags a set of merged transactions that look like the same
// real-world transaction. Indices point into the merged transaction array;
// detection is advisory and never removes rows.
type DuplicateGroup struct {
	TransactionIndices []int    `json:"transactionIndices"`
	Confidence         float64  `json:"confidence"`
	Reason             string   `json:"reason"`
	SourceFiles        []string `json:"sourceFiles"`
}

// DuplicateSummary aggregates duplicate detection output for a batch run.
type DuplicateSummary struct {
	Detected     bool             `json:"detected"`
	TotalFlagged int              `json:"totalFlagged"`
	Groups       []DuplicateGroup `json:"groups"`
}

// FileStatus reports the per-file outcome of a batch run.
type FileStatus struct {
	FileName     string `json:"fileName"`
	Success      bool   `json:"success"`
	Transactions int    `json:"transactions"`
	Error        string `json:"error,omitempty"`
}

// BatchProcessingResult is the envelope returned for a batch run.
type BatchProcessingResult struct {
	Success             bool                  `json:"success"`
	MergedDocument      *StandardizedDocument `json:"mergedDocument,omitempty"`
	TotalTransactions   int                   `json:"totalTransactions"`
	Duplicates          DuplicateSummary      `json:"duplicates"`
	FileStatuses        []FileStatus          `json:"fileStatuses"`
	Errors              []string              `json:"errors,omitempty"`
	Warnings            []string              `json:"warnings,omitempty"`
	TotalProcessingTime time.Duration         `json:"totalProcessingTime"`
}

// Export verdicts.
const (
	VerdictExportComplete   = "EXPORT_COMPLETE"
	VerdictExportIncomplete = "EXPORT_INCOMPLETE"
)

// ExportedRow is one row read back from a rendered export file. Tags support
// gocsv unmarshaling of the CSV the writer produces.
type ExportedRow struct {
	Date        string `csv:"date" json:"date"`
	Description string `csv:"description" json:"description"`
	Debit       string `csv:"debit" json:"debit"`
	Credit      string `csv:"credit" json:"credit"`
	Balance     string `csv:"balance" json:"balance"`
	Reference   string `csv:"reference" json:"reference"`
	SourceFile  string `csv:"source_file" json:"sourceFile,omitempty"`
}

// MissingTransaction is a source transaction with no matching export row.
type MissingTransaction struct {
	SourceIndex int      `json:"sourceIndex"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount,omitempty"`
}

// CorruptedTransaction is a matched row whose field value drifted from the
// source beyond formatting differences.
type CorruptedTransaction struct {
	SourceIndex   int    `json:"sourceIndex"`
	RowIndex      int    `json:"rowIndex"`
	Field         string `json:"field"`
	SourceValue   string `json:"sourceValue"`
	ExportedValue string `json:"exportedValue"`
}

// DuplicateRow is an export row with no source counterpart, or one that
// repeats another export row.
type DuplicateRow struct {
	RowIndex int    `json:"rowIndex"`
	Reason   string `json:"reason"`
}

// ExportCounts pairs the source and export row counts for quick comparison.
type ExportCounts struct {
	PDFTransactions int `json:"pdf_transactions"`
	ExportedRows    int `json:"exported_rows"`
}

// ExportValidationResult is the outcome of reconciling a rendered export
// against the originally extracted transactions. Computed per export attempt,
// never persisted as document state.
type ExportValidationResult struct {
	ExportValidation      ExportCounts           `json:"export_validation"`
	MissingTransactions   []MissingTransaction   `json:"missing_transactions"`
	CorruptedTransactions []CorruptedTransaction `json:"corrupted_transactions"`
	DuplicatesInCSV       []DuplicateRow         `json:"duplicates_in_csv"`
	ConfidenceScore       float64                `json:"confidence_score"`
	Verdict               string                 `json:"verdict"`
}
