// Package reconcile merges per-region column interpretations into one
// canonical document-wide layout via consensus voting. It is a pure
// transformation: identical input always yields identical boundaries and
// conflict report.
package reconcile

import (
	"sort"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
)

// Config controls how columns from different regions are grouped.
type Config struct {
	// PositionTolerance groups columns from different regions that sit at
	// approximately the same x-position.
	PositionTolerance float64
}

// DefaultConfig returns the standard grouping tolerance.
func DefaultConfig() Config {
	return Config{PositionTolerance: 20.0}
}

// member is one region's contribution to a position group.
type member struct {
	regionIndex int
	regionWidth int // total columns in the contributing region
	column      models.ColumnBoundary
}

// Columns reconciles all detected regions into a canonical layout. Regions
// vote per position group; the most-proposed type wins, ties broken by the
// type backed by the region with the most total columns (a fuller capture of
// the table is assumed more reliable). Disagreements are always surfaced in
// the conflict report even when resolved. Missing required roles (date, a
// monetary column, balance) are reported via CanonicalLayout.MissingRoles but
// never fatal; downstream stages proceed with partial data.
func Columns(regions []models.TableMetrics, cfg Config) (models.CanonicalLayout, []models.ColumnConflict) {
	var members []member
	for ri, region := range regions {
		for _, col := range region.Columns {
			members = append(members, member{
				regionIndex: ri,
				regionWidth: len(region.Columns),
				column:      col,
			})
		}
	}
	if len(members) == 0 {
		return models.CanonicalLayout{MissingRoles: missingRoles(nil)}, nil
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].column.CenterX < members[j].column.CenterX
	})

	var groups [][]member
	for _, m := range members {
		if len(groups) > 0 {
			last := groups[len(groups)-1]
			if m.column.CenterX-last[len(last)-1].column.CenterX <= cfg.PositionTolerance {
				groups[len(groups)-1] = append(last, m)
				continue
			}
		}
		groups = append(groups, []member{m})
	}

	var layout models.CanonicalLayout
	var conflicts []models.ColumnConflict
	taken := make(map[models.ColumnType]bool)

	for _, group := range groups {
		resolved, conflict := vote(group)
		boundary := mergeBoundaries(group, resolved)

		// Canonical roles are unique; a second claim on a resolved role is
		// demoted to unknown and recorded as a conflict.
		if isRole(resolved) && taken[resolved] {
			conflicts = append(conflicts, models.ColumnConflict{
				CenterX:        boundary.CenterX,
				CompetingTypes: []models.ColumnType{resolved, models.ColumnUnknown},
				RegionIndices:  regionIndices(group),
				Resolved:       models.ColumnUnknown,
			})
			boundary.InferredType = models.ColumnUnknown
		} else {
			if isRole(resolved) {
				taken[resolved] = true
			}
			if conflict != nil {
				conflicts = append(conflicts, *conflict)
			}
		}
		layout.Columns = append(layout.Columns, boundary)
	}

	layout.MissingRoles = missingRoles(layout.Columns)
	return layout, conflicts
}

// vote picks the winning type for one position group. Majority wins; ties go
// to the type proposed by the widest contributing region. A conflict record
// is returned whenever members disagreed, resolved or not.
func vote(group []member) (models.ColumnType, *models.ColumnConflict) {
	votes := make(map[models.ColumnType]int)
	widest := make(map[models.ColumnType]int)
	for _, m := range group {
		t := m.column.InferredType
		votes[t]++
		if m.regionWidth > widest[t] {
			widest[t] = m.regionWidth
		}
	}
	if len(votes) == 1 {
		return group[0].column.InferredType, nil
	}

	// Deterministic iteration: collect and sort candidate types.
	types := make([]models.ColumnType, 0, len(votes))
	for t := range votes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	winner := types[0]
	for _, t := range types[1:] {
		if votes[t] > votes[winner] {
			winner = t
			continue
		}
		if votes[t] == votes[winner] && widest[t] > widest[winner] {
			winner = t
		}
	}

	return winner, &models.ColumnConflict{
		CenterX:        groupCenter(group),
		CompetingTypes: types,
		RegionIndices:  regionIndices(group),
		Resolved:       winner,
	}
}

func mergeBoundaries(group []member, resolved models.ColumnType) models.ColumnBoundary {
	b := models.ColumnBoundary{
		LeftEdge:     group[0].column.LeftEdge,
		RightEdge:    group[0].column.RightEdge,
		InferredType: resolved,
	}
	for _, m := range group[1:] {
		if m.column.LeftEdge < b.LeftEdge {
			b.LeftEdge = m.column.LeftEdge
		}
		if m.column.RightEdge > b.RightEdge {
			b.RightEdge = m.column.RightEdge
		}
	}
	b.CenterX = groupCenter(group)
	return b
}

func groupCenter(group []member) float64 {
	var sum float64
	for _, m := range group {
		sum += m.column.CenterX
	}
	return sum / float64(len(group))
}

func regionIndices(group []member) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range group {
		if !seen[m.regionIndex] {
			seen[m.regionIndex] = true
			out = append(out, m.regionIndex)
		}
	}
	sort.Ints(out)
	return out
}

func isRole(t models.ColumnType) bool {
	switch t {
	case models.ColumnDate, models.ColumnDebit, models.ColumnCredit,
		models.ColumnBalance, models.ColumnAmount, models.ColumnReference:
		return true
	}
	return false
}

// missingRoles lists required roles absent from the layout: date, balance,
// and either a debit/credit pair or a combined amount column.
func missingRoles(columns []models.ColumnBoundary) []models.ColumnType {
	present := make(map[models.ColumnType]bool)
	for _, c := range columns {
		present[c.InferredType] = true
	}
	var missing []models.ColumnType
	if !present[models.ColumnDate] {
		missing = append(missing, models.ColumnDate)
	}
	if !present[models.ColumnAmount] && !(present[models.ColumnDebit] && present[models.ColumnCredit]) {
		missing = append(missing, models.ColumnAmount)
	}
	if !present[models.ColumnBalance] {
		missing = append(missing, models.ColumnBalance)
	}
	return missing
}
