package models

// PositionedToken is a single piece of text placed on a page, as reported by
// the token extractor (text layer or OCR). Coordinates are in PDF user-space
// units with the origin at the bottom-left of the page.
type PositionedToken struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Page     int     `json:"page"`
	FontSize float64 `json:"fontSize,omitempty"`
}

// PageTokens holds every token extracted from one page, plus whether the
// extractor had to fall back to OCR for that page. OCR-derived tokens are
// scored lower downstream.
type PageTokens struct {
	Page    int               `json:"page"`
	Tokens  []PositionedToken `json:"tokens"`
	UsedOCR bool              `json:"usedOcr"`
}

// ColumnType is the semantic role inferred for a detected table column.
type ColumnType string

const (
	ColumnDate        ColumnType = "date"
	ColumnDescription ColumnType = "description"
	ColumnDebit       ColumnType = "debit"
	ColumnCredit      ColumnType = "credit"
	ColumnBalance     ColumnType = "balance"
	ColumnAmount      ColumnType = "amount"
	ColumnReference   ColumnType = "reference"
	ColumnUnknown     ColumnType = "unknown"
)

// ColumnBoundary describes one vertical band of a detected table region.
type ColumnBoundary struct {
	CenterX      float64    `json:"centerX"`
	LeftEdge     float64    `json:"leftEdge"`
	RightEdge    float64    `json:"rightEdge"`
	InferredType ColumnType `json:"inferredType"`
}

// TableMetrics describes one detected table region on a page. A document
// usually yields one to three regions; more than five signals fragmentation.
type TableMetrics struct {
	TableIndex int              `json:"tableIndex"`
	Page       int              `json:"page"`
	Columns    []ColumnBoundary `json:"columns"`
	RowCount   int              `json:"rowCount"`
}

// CanonicalLayout is the document-wide column layout produced by consensus
// voting across all detected regions. Columns are ordered left to right with
// unique roles; MissingRoles lists required roles no region supplied.
type CanonicalLayout struct {
	Columns      []ColumnBoundary `json:"columns"`
	MissingRoles []ColumnType     `json:"missingRoles,omitempty"`
}

// Column returns the boundary with the given role, or nil if absent.
func (l CanonicalLayout) Column(t ColumnType) *ColumnBoundary {
	for i := range l.Columns {
		if l.Columns[i].InferredType == t {
			return &l.Columns[i]
		}
	}
	return nil
}

// HasAmountColumns reports whether the layout carries any monetary column
// (debit, credit or a combined amount column).
func (l CanonicalLayout) HasAmountColumns() bool {
	return l.Column(ColumnDebit) != nil || l.Column(ColumnCredit) != nil || l.Column(ColumnAmount) != nil
}

// ColumnConflict records a column-position group where regions disagreed on
// the semantic type. Conflicts are always reported, even when resolved by
// voting.
type ColumnConflict struct {
	CenterX        float64      `json:"centerX"`
	CompetingTypes []ColumnType `json:"competingTypes"`
	RegionIndices  []int        `json:"regionIndices"`
	Resolved       ColumnType   `json:"resolved"`
}
