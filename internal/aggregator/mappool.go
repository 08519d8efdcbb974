package aggregator

import "strings"

// Map-pool sizes are an explicit per-title configuration input rather than
// something inferred from the data: a series that never mentions a map cannot
// reveal the pool size on its own. The defaults below cover the titles the
// GRID tournaments we target actually run.

// DefaultPools lists the active competitive map pool per title slug.
var DefaultPools = map[string][]string{
	"valorant": {
		"ascent", "bind", "corrode", "haven", "icebox", "lotus", "sunset",
	},
}

// PoolForTitle returns the configured competitive map pool for a title slug,
// or nil when the title has no pool configured. Without a pool, absence
// inference is skipped and only explicit draft actions count toward bans.
func PoolForTitle(title string) []string {
	return DefaultPools[strings.ToLower(title)]
}

// draftPoolSize is how many distinct maps a complete map-selection phase
// references for a format. Valorant drafts (bans + picks + decider) walk the
// entire pool for every best-of-N; the format parameter stays in the
// signature so titles with partial drafts can diverge without touching
// callers.
func draftPoolSize(_ string, poolSize int) int {
	return poolSize
}
