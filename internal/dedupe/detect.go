package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/statement-pipeline/internal/models"
	"github.com/FACorreiaa/statement-pipeline/pkg/dates"
)

// Config holds the duplicate detection thresholds.
type Config struct {
	// SimilarityThreshold is the minimum description similarity (0-100)
	// for two same-date same-amount transactions to pair up.
	SimilarityThreshold int
	// MinGroupSize is the smallest group worth reporting. Always 2.
	MinGroupSize int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{SimilarityThreshold: 70, MinGroupSize: 2}
}

// Detect scans the merged transaction list for probable duplicates: pairs
// with identical date, identical signed amount and description similarity
// above the threshold. Candidates are bucketed by date+amount so comparison
// stays near-linear on large batches, and matching pairs are unioned into
// groups via disjoint sets so transitive matches (A~B, B~C) land in a single
// group.
func Detect(txs []models.ParsedTransaction, cfg Config) []models.DuplicateGroup {
	if len(txs) < 2 {
		return nil
	}
	if cfg.MinGroupSize < 2 {
		cfg.MinGroupSize = 2
	}

	buckets := make(map[string][]int)
	for i, tx := range txs {
		signed, ok := tx.SignedAmount()
		if !ok {
			continue
		}
		key := fmt.Sprintf("%s|%.2f", dates.Normalize(tx.Date), signed)
		buckets[key] = append(buckets[key], i)
	}

	uf := newUnionFind(len(txs))
	exact := make(map[[2]int]bool)
	for _, indices := range buckets {
		for a := 0; a < len(indices); a++ {
			for b := a + 1; b < len(indices); b++ {
				i, j := indices[a], indices[b]
				score := similarity(txs[i].Description, txs[j].Description)
				if score < cfg.SimilarityThreshold {
					continue
				}
				uf.union(i, j)
				if score == 100 {
					exact[[2]int{i, j}] = true
				}
			}
		}
	}

	groupsByRoot := make(map[int][]int)
	for i := range txs {
		root := uf.find(i)
		groupsByRoot[root] = append(groupsByRoot[root], i)
	}

	roots := make([]int, 0, len(groupsByRoot))
	for root, members := range groupsByRoot {
		if len(members) >= cfg.MinGroupSize {
			roots = append(roots, root)
		}
	}
	sort.Ints(roots)

	groups := make([]models.DuplicateGroup, 0, len(roots))
	for _, root := range roots {
		members := groupsByRoot[root]
		sort.Ints(members)
		groups = append(groups, buildGroup(txs, members, exact))
	}
	return groups
}

// buildGroup derives the group confidence and reason. An exact description
// match across different source files is the strongest signal: the same
// transaction reported in two statements. Same-file exact duplicates are
// weaker, often legitimate repeat payments.
func buildGroup(txs []models.ParsedTransaction, members []int, exact map[[2]int]bool) models.DuplicateGroup {
	files := make(map[string]bool)
	for _, idx := range members {
		if f := txs[idx].SourceFileName; f != "" {
			files[f] = true
		}
	}
	sourceFiles := make([]string, 0, len(files))
	for f := range files {
		sourceFiles = append(sourceFiles, f)
	}
	sort.Strings(sourceFiles)

	allExact := true
	for a := 0; a < len(members) && allExact; a++ {
		for b := a + 1; b < len(members); b++ {
			if !exact[[2]int{members[a], members[b]}] {
				allExact = false
				break
			}
		}
	}

	confidence := 0.6
	var reasons []string
	reasons = append(reasons, fmt.Sprintf("%d transactions share date %s and amount", len(members), txs[members[0]].Date))
	if allExact {
		confidence += 0.2
		reasons = append(reasons, "identical descriptions")
	} else {
		reasons = append(reasons, "similar descriptions")
	}
	if len(sourceFiles) > 1 {
		confidence += 0.2
		reasons = append(reasons, fmt.Sprintf("across %d source files", len(sourceFiles)))
	}
	if confidence > 1 {
		confidence = 1
	}

	return models.DuplicateGroup{
		TransactionIndices: members,
		Confidence:         confidence,
		Reason:             strings.Join(reasons, "; "),
		SourceFiles:        sourceFiles,
	}
}

// similarity scores two descriptions 0-100: exact match, containment, then
// normalized Levenshtein distance, whichever is most generous.
func similarity(a, b string) int {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	longer, shorter := a, b
	if len(b) > len(a) {
		longer, shorter = b, a
	}
	if strings.Contains(longer, shorter) {
		return 75 + 25*len(shorter)/len(longer)
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	if distance > len(longer) {
		distance = len(longer)
	}
	return 100 * (len(longer) - distance) / len(longer)
}
