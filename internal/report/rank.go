package report

import (
	"cmp"
	"slices"
)

// Rank returns a copy of findings stably sorted from Critical to unknown.
func Rank(findings []Finding) []Finding {
	ranked := slices.Clone(findings)
	slices.SortStableFunc(ranked, func(a, b Finding) int {
		return cmp.Compare(a.Severity.Rank(), b.Severity.Rank())
	})
	return ranked
}
