// Package detect clusters positioned tokens into table regions and infers a
// semantic role for each column band. It is the first pure stage of the
// pipeline: tokens for one page in, zero or more TableMetrics out.
package detect

import (
	"regexp"
	"sort"
	"strings"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/amount"
	"github.com/FACorreiaa/statement-pipeline/pkg/dates"
)

// Config holds the geometric tolerances for table detection. Values are PDF
// user-space units.
type Config struct {
	// RowTolerance groups tokens onto one text baseline.
	RowTolerance float64
	// ColumnTolerance clusters token x-positions into vertical bands.
	ColumnTolerance float64
	// RegionGap is the vertical gap between rows that splits a page into
	// separate table regions (headers and footers breaking the table).
	RegionGap float64
	// MinRows is the minimum number of data rows for a region to count.
	MinRows int
}

// DefaultConfig returns the tolerances that work for common statement layouts.
func DefaultConfig() Config {
	return Config{
		RowTolerance:    3.0,
		ColumnTolerance: 18.0,
		RegionGap:       45.0,
		MinRows:         2,
	}
}

// Row is one baseline-aligned run of tokens, sorted left to right.
type Row struct {
	Y      float64
	Tokens []models.PositionedToken
}

// Text joins the row's token text with single spaces.
func (r Row) Text() string {
	parts := make([]string, len(r.Tokens))
	for i, t := range r.Tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// GroupRows buckets tokens into baseline rows within the given y tolerance.
// Rows come back top of page first; tokens within a row left to right.
func GroupRows(tokens []models.PositionedToken, tolerance float64) []Row {
	if len(tokens) == 0 {
		return nil
	}
	sorted := make([]models.PositionedToken, len(tokens))
	copy(sorted, tokens)
	// PDF y grows bottom-up, so descending y is reading order.
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []Row
	for _, tok := range sorted {
		if strings.TrimSpace(tok.Text) == "" {
			continue
		}
		if len(rows) > 0 && rows[len(rows)-1].Y-tok.Y <= tolerance {
			rows[len(rows)-1].Tokens = append(rows[len(rows)-1].Tokens, tok)
			continue
		}
		rows = append(rows, Row{Y: tok.Y, Tokens: []models.PositionedToken{tok}})
	}
	for i := range rows {
		sort.SliceStable(rows[i].Tokens, func(a, b int) bool {
			return rows[i].Tokens[a].X < rows[i].Tokens[b].X
		})
	}
	return rows
}

// Detector finds table regions on statement pages.
type Detector struct {
	cfg    Config
	filter *Filter
}

// NewDetector creates a detector with the given config and the default
// boilerplate filter.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg, filter: NewFilter()}
}

// DetectTables clusters one page's tokens into table regions. A page may
// legitimately yield zero regions (no table) or several (the table visually
// broken by headers or footers). Regions with fewer than two columns or
// without a date or monetary column are discarded silently; they are headers,
// footers or disclaimer text.
func (d *Detector) DetectTables(page models.PageTokens) []models.TableMetrics {
	rows := GroupRows(page.Tokens, d.cfg.RowTolerance)

	// Drop boilerplate rows before any geometry, but never rows that carry
	// a monetary value: those are data no matter what the text says.
	kept := rows[:0:0]
	for _, row := range rows {
		if !rowHasAmount(row) && d.filter.IsBoilerplate(row.Text()) {
			continue
		}
		kept = append(kept, row)
	}

	var regions []models.TableMetrics
	for _, block := range splitByGap(kept, d.cfg.RegionGap) {
		if len(block) < d.cfg.MinRows {
			continue
		}
		columns := d.clusterColumns(block)
		if len(columns) < 2 {
			continue
		}
		if !hasRequiredColumns(columns) {
			continue
		}
		regions = append(regions, models.TableMetrics{
			TableIndex: len(regions),
			Page:       page.Page,
			Columns:    columns,
			RowCount:   len(block),
		})
	}
	return regions
}

func rowHasAmount(row Row) bool {
	for _, t := range row.Tokens {
		if amount.IsAmount(t.Text) {
			return true
		}
	}
	return false
}

// splitByGap breaks a top-to-bottom row sequence wherever the vertical gap
// between consecutive baselines exceeds gap.
func splitByGap(rows []Row, gap float64) [][]Row {
	var blocks [][]Row
	var current []Row
	for i, row := range rows {
		if i > 0 && rows[i-1].Y-row.Y > gap && len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
		current = append(current, row)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// band is a candidate column under construction.
type band struct {
	left, right float64
	tokens      []models.PositionedToken
}

// clusterColumns groups token x-positions across the region's rows into
// vertical bands and infers a semantic type for each.
func (d *Detector) clusterColumns(rows []Row) []models.ColumnBoundary {
	var all []models.PositionedToken
	for _, row := range rows {
		all = append(all, row.Tokens...)
	}
	if len(all) == 0 {
		return nil
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].X < all[j].X })

	var bands []band
	for _, tok := range all {
		if len(bands) > 0 && tok.X-bands[len(bands)-1].right <= d.cfg.ColumnTolerance {
			b := &bands[len(bands)-1]
			if tok.X > b.right {
				b.right = tok.X
			}
			b.tokens = append(b.tokens, tok)
			continue
		}
		bands = append(bands, band{left: tok.X, right: tok.X, tokens: []models.PositionedToken{tok}})
	}

	columns := make([]models.ColumnBoundary, 0, len(bands))
	for _, b := range bands {
		columns = append(columns, models.ColumnBoundary{
			CenterX:      (b.left + b.right) / 2,
			LeftEdge:     b.left,
			RightEdge:    b.right,
			InferredType: classifyBand(b.tokens),
		})
	}
	disambiguatePositions(columns)
	return columns
}

// numericCandidate marks bands that hold monetary values before positional
// disambiguation assigns them debit/credit/balance/amount.
const numericCandidate models.ColumnType = "numeric"

var integerPattern = regexp.MustCompile(`^\d{3,}$`)

// classifyBand tests band content against typed patterns in priority order:
// amounts first, then dates, then reference-looking integers, else text.
func classifyBand(tokens []models.PositionedToken) models.ColumnType {
	var amounts, datesN, ints, words int
	for _, t := range tokens {
		s := strings.TrimSpace(t.Text)
		switch {
		case amount.IsAmount(s):
			amounts++
		case dates.IsDate(s):
			datesN++
		case integerPattern.MatchString(s):
			ints++
		default:
			words++
		}
	}
	total := amounts + datesN + ints + words
	if total == 0 {
		return models.ColumnUnknown
	}
	switch {
	case amounts*2 >= total:
		return numericCandidate
	case datesN*2 >= total:
		return models.ColumnDate
	case words*2 >= total:
		return models.ColumnDescription
	case ints*2 >= total:
		return models.ColumnReference
	}
	return models.ColumnUnknown
}

// disambiguatePositions resolves numeric candidates by column position:
// with three or more numeric columns the leftmost after the description is
// conventionally debit, the next credit and the rightmost balance; with two,
// a combined amount column plus balance; a lone numeric column is amount.
// This is a heuristic; the reconciler gets the final say.
func disambiguatePositions(columns []models.ColumnBoundary) {
	var numeric []int
	descSeen := false
	for i := range columns {
		switch columns[i].InferredType {
		case numericCandidate:
			numeric = append(numeric, i)
		case models.ColumnDescription:
			if descSeen {
				// Only one description column; later wide text bands are
				// overflow or notes.
				columns[i].InferredType = models.ColumnUnknown
			}
			descSeen = true
		}
	}

	switch len(numeric) {
	case 0:
	case 1:
		columns[numeric[0]].InferredType = models.ColumnAmount
	case 2:
		columns[numeric[0]].InferredType = models.ColumnAmount
		columns[numeric[1]].InferredType = models.ColumnBalance
	default:
		columns[numeric[0]].InferredType = models.ColumnDebit
		columns[numeric[1]].InferredType = models.ColumnCredit
		columns[numeric[len(numeric)-1]].InferredType = models.ColumnBalance
		for _, idx := range numeric[2 : len(numeric)-1] {
			columns[idx].InferredType = models.ColumnUnknown
		}
	}
}

func hasRequiredColumns(columns []models.ColumnBoundary) bool {
	for _, c := range columns {
		switch c.InferredType {
		case models.ColumnDate, models.ColumnDebit, models.ColumnCredit, models.ColumnAmount, models.ColumnBalance:
			return true
		}
	}
	return false
}
