package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-pipeline/internal/extract"
	"github.com/FACorreiaa/statement-pipeline/internal/pipeline"
	"github.com/FACorreiaa/statement-pipeline/pkg/config"
)

// NewRootCmd builds the CLI: process a single statement, batch-process a
// directory of statements, or verify a rendered export against its source.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "statement",
		Short: "Bank statement extraction and reconciliation pipeline",
		Long: `Converts bank-statement PDFs (or OCR token dumps) into validated,
confidence-scored transaction ledgers, and reconciles exported files
against the original extraction.`,
		SilenceUsage: true,
	}
	root.AddCommand(newProcessCmd(), newBatchCmd(), newVerifyExportCmd())
	return root
}

// newProcessor assembles the pipeline from environment configuration.
func newProcessor() (*pipeline.Processor, *config.Config) {
	cfg := config.Load()
	logger := newLogger(cfg.Logging)

	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.Workers = cfg.Pipeline.Workers
	pipeCfg.Dedupe.SimilarityThreshold = cfg.Pipeline.SimilarityThreshold

	return pipeline.NewProcessor(pipeCfg, extract.NewPDFExtractor(), logger, nil), cfg
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
