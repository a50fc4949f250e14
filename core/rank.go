package core

import (
	"slices"
	"sort"

	"github.com/huangsam/mri/schema"
)

// TopK returns the k riskiest files. Ties on risk are broken by churn rate
// (descending), then by path (ascending), so repeated builds on identical
// input always select the same hotspots. A k of zero or less means
// schema.DefaultTopK. The input slice is not modified.
func TopK(files []schema.ScoredFile, k int) []schema.ScoredFile {
	if k <= 0 {
		k = schema.DefaultTopK
	}
	if len(files) == 0 {
		return nil
	}
	ranked := slices.Clone(files)
	sort.Slice(ranked, func(i, j int) bool {
		return rankLess(ranked[i], ranked[j])
	})
	if len(ranked) > k {
		return ranked[:k]
	}
	return ranked
}

// rankLess reports whether a ranks before b in the hotspot order.
func rankLess(a, b schema.ScoredFile) bool {
	if a.Risk != b.Risk {
		return a.Risk > b.Risk
	}
	if a.ChurnRate != b.ChurnRate {
		return a.ChurnRate > b.ChurnRate
	}
	return a.Path < b.Path
}
