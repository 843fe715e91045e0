// Package pipeline wires the extraction stages into the single-document and
// batch entry points. Each stage fully consumes the previous stage's output;
// later stages need a global view of all regions and pages, so there is no
// streaming between them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-pipeline/internal/balance"
	"github.com/FACorreiaa/statement-pipeline/internal/dedupe"
	"github.com/FACorreiaa/statement-pipeline/internal/detect"
	"github.com/FACorreiaa/statement-pipeline/internal/exportcheck"
	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/internal/reconcile"
	"github.com/FACorreiaa/statement-pipeline/internal/score"
	"github.com/FACorreiaa/statement-pipeline/internal/stitch"
	"github.com/FACorreiaa/statement-pipeline/pkg/metrics"
)

// Config bundles every stage's thresholds. All values are plain data passed
// explicitly into the stages; there is no runtime-mutable shared state.
type Config struct {
	Detect    detect.Config
	Reconcile reconcile.Config
	Stitch    stitch.Config
	Score     score.Config
	Balance   balance.Config
	Dedupe    dedupe.Config
	Export    exportcheck.Config
	// Workers bounds batch concurrency across files.
	Workers int
}

// DefaultConfig assembles every stage's defaults.
func DefaultConfig() Config {
	return Config{
		Detect:    detect.DefaultConfig(),
		Reconcile: reconcile.DefaultConfig(),
		Stitch:    stitch.DefaultConfig(),
		Score:     score.DefaultConfig(),
		Balance:   balance.DefaultConfig(),
		Dedupe:    dedupe.DefaultConfig(),
		Export:    exportcheck.DefaultConfig(),
		Workers:   4,
	}
}

// TokenExtractor is the external collaborator supplying positioned tokens
// per page. Extraction is the only I/O-bound step of a document run.
type TokenExtractor interface {
	Extract(filePath string) ([]models.PageTokens, error)
}

// StageCallback receives progress events as stages complete. It is advisory:
// it must not block, and nothing it does can alter pipeline results.
type StageCallback func(models.ProcessingStage)

// Processor runs the extraction pipeline.
type Processor struct {
	cfg       Config
	extractor TokenExtractor
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// NewProcessor creates a processor. extractor may be nil when callers always
// supply pages directly; logger nil falls back to slog.Default(); metrics
// nil disables instrumentation.
func NewProcessor(cfg Config, extractor TokenExtractor, logger *slog.Logger, m *metrics.Metrics) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	return &Processor{
		cfg:       cfg,
		extractor: extractor,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("statement-pipeline"),
	}
}

// ProcessFile extracts tokens from a statement file and runs the document
// pipeline. Extractor failures are pipeline-level failures: no partial
// document is returned for the file.
func (p *Processor) ProcessFile(ctx context.Context, filePath string, onStage StageCallback) *models.ProcessingResult {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.process_file",
		trace.WithAttributes(attribute.String("file", filePath)))
	defer span.End()

	result := &models.ProcessingResult{RunID: uuid.New(), FileName: filePath}
	emit := p.emitter(result, onStage)

	emit(models.StageUpload, 100, "file received")

	if p.extractor == nil {
		result.Errors = append(result.Errors, "no token extractor configured")
		result.ProcessingTime = time.Since(start)
		return result
	}
	pages, err := p.extractor.Extract(filePath)
	if err != nil {
		span.RecordError(err)
		p.logger.Error("token extraction failed", "file", filePath, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("extraction failed: %v", err))
		result.ProcessingTime = time.Since(start)
		p.metrics.DocumentProcessed(false, 0)
		return result
	}

	p.runStages(ctx, result, pages, emit)
	result.ProcessingTime = time.Since(start)
	return result
}

// ProcessDocument runs the pipeline over already-extracted pages. Identical
// token input yields an identical StandardizedDocument; only the envelope's
// RunID and timing differ between runs.
func (p *Processor) ProcessDocument(ctx context.Context, fileName string, pages []models.PageTokens, onStage StageCallback) *models.ProcessingResult {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.process_document",
		trace.WithAttributes(attribute.String("file", fileName)))
	defer span.End()

	result := &models.ProcessingResult{RunID: uuid.New(), FileName: fileName}
	emit := p.emitter(result, onStage)

	emit(models.StageUpload, 100, "tokens received")
	p.runStages(ctx, result, pages, emit)
	result.ProcessingTime = time.Since(start)
	return result
}

func (p *Processor) runStages(ctx context.Context, result *models.ProcessingResult, pages []models.PageTokens, emit func(string, int, string)) {
	stageStart := time.Now()
	_, extractSpan := p.tracer.Start(ctx, "stage."+models.StageExtract)
	tokens := 0
	for _, page := range pages {
		tokens += len(page.Tokens)
	}
	extractSpan.SetAttributes(attribute.Int("pages", len(pages)), attribute.Int("tokens", tokens))
	extractSpan.End()
	emit(models.StageExtract, 100, fmt.Sprintf("%d pages, %d tokens", len(pages), tokens))
	p.metrics.ObserveStage(models.StageExtract, time.Since(stageStart))

	if ctx.Err() != nil {
		result.Errors = append(result.Errors, ctx.Err().Error())
		return
	}

	// Anchor: detect table regions per page, then reconcile their column
	// interpretations into one canonical layout.
	stageStart = time.Now()
	_, anchorSpan := p.tracer.Start(ctx, "stage."+models.StageAnchor)
	detector := detect.NewDetector(p.cfg.Detect)
	var regions []models.TableMetrics
	for _, page := range pages {
		for _, region := range detector.DetectTables(page) {
			region.TableIndex = len(regions)
			regions = append(regions, region)
		}
	}
	layout, conflicts := reconcile.Columns(regions, p.cfg.Reconcile)
	result.ColumnConflicts = conflicts
	for _, role := range layout.MissingRoles {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no %s column detected; proceeding with partial data", role))
	}
	anchorSpan.SetAttributes(attribute.Int("regions", len(regions)), attribute.Int("columns", len(layout.Columns)))
	anchorSpan.End()
	emit(models.StageAnchor, 100, fmt.Sprintf("%d regions, %d canonical columns", len(regions), len(layout.Columns)))
	p.metrics.ObserveStage(models.StageAnchor, time.Since(stageStart))

	doc := &models.StandardizedDocument{
		TotalPages:      len(pages),
		ExtractedHeader: stitch.ExtractHeader(pages),
	}

	if len(regions) == 0 {
		// Structural failure is never fatal: produce an empty reviewable
		// document with a warning.
		result.Warnings = append(result.Warnings, "no table regions detected")
		doc.OverallValidation = models.SegmentUnchecked
		result.Document = doc
		result.Success = true
		emit(models.StageStitch, 100, "nothing to stitch")
		emit(models.StageValidate, 100, "nothing to validate")
		emit(models.StageOutput, 100, "empty document")
		p.metrics.DocumentProcessed(true, 0)
		return
	}

	if ctx.Err() != nil {
		result.Errors = append(result.Errors, ctx.Err().Error())
		return
	}

	stageStart = time.Now()
	_, stitchSpan := p.tracer.Start(ctx, "stage."+models.StageStitch)
	stitcher := stitch.NewStitcher(p.cfg.Stitch)
	stitched := stitcher.Stitch(pages, layout)
	doc.Segments = stitched.Segments
	doc.RawTransactions = stitched.Transactions
	result.Warnings = append(result.Warnings, stitched.Warnings...)
	stitchSpan.SetAttributes(attribute.Int("transactions", len(stitched.Transactions)), attribute.Int("segments", len(stitched.Segments)))
	stitchSpan.End()
	emit(models.StageStitch, 100, fmt.Sprintf("%d transactions in %d segments", len(stitched.Transactions), len(stitched.Segments)))
	p.metrics.ObserveStage(models.StageStitch, time.Since(stageStart))

	stageStart = time.Now()
	_, validateSpan := p.tracer.Start(ctx, "stage."+models.StageValidate)
	score.NewScorer(p.cfg.Score).ScoreDocument(doc, len(regions))
	balance.NewValidator(p.cfg.Balance).ValidateDocument(doc)
	if doc.OverallValidation == models.SegmentInvalid {
		p.metrics.ValidationFailed()
	}
	validateSpan.SetAttributes(attribute.String("validation", string(doc.OverallValidation)))
	validateSpan.End()
	emit(models.StageValidate, 100, fmt.Sprintf("validation %s, %d errors, %d warnings",
		doc.OverallValidation, doc.ErrorTransactions, doc.WarningTransactions))
	p.metrics.ObserveStage(models.StageValidate, time.Since(stageStart))

	result.Document = doc
	result.Success = true
	emit(models.StageOutput, 100, "document assembled")

	p.logger.Info("document processed",
		"file", result.FileName,
		"transactions", doc.TotalTransactions,
		"validation", doc.OverallValidation,
	)
	p.metrics.DocumentProcessed(true, doc.TotalTransactions)
}

// ValidateExport reconciles exported rows against a processed document's
// transactions; consumed synchronously before a download is allowed.
func (p *Processor) ValidateExport(source []models.ParsedTransaction, rows []models.ExportedRow) *models.ExportValidationResult {
	return exportcheck.ValidateExport(source, rows, p.cfg.Export)
}

// emitter records stage events on the result and forwards them to the
// callback. Callback panics are swallowed: progress reporting must never
// alter pipeline results.
func (p *Processor) emitter(result *models.ProcessingResult, onStage StageCallback) func(string, int, string) {
	return func(stage string, progress int, message string) {
		event := models.ProcessingStage{Stage: stage, Progress: progress, Message: message}
		result.Stages = append(result.Stages, event)
		if onStage == nil {
			return
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Warn("stage callback panicked", "stage", stage, "panic", r)
				}
			}()
			onStage(event)
		}()
	}
}
