package detect

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// boilerplatePatterns are phrases that mark non-table statement furniture:
// footers, disclaimers, contact blocks. Matched case-insensitively in a
// single Aho-Corasick pass per row.
var boilerplatePatterns = []string{
	"toll free",
	"customer care",
	"customer service",
	"helpline",
	"call us",
	"contact us",
	"visit us",
	"registered office",
	"registered in england",
	"authorised and regulated",
	"financial conduct authority",
	"financial services compensation",
	"terms and conditions",
	"legal disclaimer",
	"this is an important document",
	"continued overleaf",
	"continued on next page",
	"please retain",
	"www.",
	".com/",
	"e-mail",
	"email us",
}

var phonePattern = regexp.MustCompile(`(?:\+?\d[\d\s-]{8,}\d)`)

// Filter screens text rows against known statement boilerplate. It wraps a
// pre-built Aho-Corasick matcher so screening stays O(row length) regardless
// of how many patterns are registered.
type Filter struct {
	matcher  *ahocorasick.Matcher
	patterns []string
}

// NewFilter builds a filter over the default boilerplate phrases plus any
// extras the caller registers.
func NewFilter(extra ...string) *Filter {
	patterns := make([]string, 0, len(boilerplatePatterns)+len(extra))
	patterns = append(patterns, boilerplatePatterns...)
	for _, p := range extra {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return &Filter{
		matcher:  ahocorasick.NewStringMatcher(patterns),
		patterns: patterns,
	}
}

// IsBoilerplate reports whether the joined row text matches a known
// boilerplate phrase or looks like a phone number block.
func (f *Filter) IsBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	if hits := f.matcher.Match([]byte(lower)); len(hits) > 0 {
		return true
	}
	// Phone numbers only count when the row carries no decimal amount;
	// sort codes and long references would otherwise false-positive.
	if phonePattern.MatchString(lower) && !strings.Contains(lower, ".") {
		return true
	}
	return false
}

// PatternCount returns the number of registered phrases.
func (f *Filter) PatternCount() int {
	return len(f.patterns)
}
