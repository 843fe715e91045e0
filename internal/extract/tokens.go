package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
)

// TokenDump is the interchange format for externally produced tokens,
// typically an OCR service run out of process. One entry per page.
type TokenDump struct {
	Pages []models.PageTokens `json:"pages"`
}

// ReadTokenDump parses a JSON token dump.
func ReadTokenDump(r io.Reader) ([]models.PageTokens, error) {
	var dump TokenDump
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decode token dump: %w", err)
	}
	if len(dump.Pages) == 0 {
		return nil, fmt.Errorf("token dump has no pages")
	}
	sort.SliceStable(dump.Pages, func(i, j int) bool {
		return dump.Pages[i].Page < dump.Pages[j].Page
	})
	return dump.Pages, nil
}

// ReadTokenDumpFile reads a token dump from disk.
func ReadTokenDumpFile(path string) ([]models.PageTokens, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token dump: %w", err)
	}
	defer f.Close()
	return ReadTokenDump(f)
}
