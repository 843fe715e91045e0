// Package extract adapts external token sources to the pipeline's input
// shape. The pipeline itself never rasterizes or OCRs anything; it consumes
// positioned tokens from the text layer here or from an OCR dump produced
// out of process.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
)

// PDFExtractor reads positioned tokens from a PDF's text layer.
type PDFExtractor struct{}

// NewPDFExtractor creates a text-layer extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns one PageTokens per page. Extraction failures are hard
// errors for the document: a half-extracted statement is not meaningfully
// useful downstream.
func (e *PDFExtractor) Extract(filePath string) (pages []models.PageTokens, err error) {
	// The PDF library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()

		pt := models.PageTokens{Page: i - 1}
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			pt.Tokens = append(pt.Tokens, models.PositionedToken{
				Text:     t.S,
				X:        t.X,
				Y:        t.Y,
				Page:     i - 1,
				FontSize: t.FontSize,
			})
		}
		pages = append(pages, pt)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text layer found; statement may be image-based and needs OCR")
	}
	return pages, nil
}
