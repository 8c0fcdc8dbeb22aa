package sales

import (
	"sort"
	"strings"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

// NormalizeUTM is the matching key of a UTM content value. Applying it twice is a no-op.
func NormalizeUTM(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AttributionIndex resolves a deal's UTM content to the link that carried it.
type AttributionIndex struct {
	byUTM map[string]store.Link
	keys  []string
}

// BuildIndex indexes links by normalized UTM. When two links share a key the first one in
// the slice wins, so callers pass links newest first.
func BuildIndex(links []store.Link) *AttributionIndex {
	idx := &AttributionIndex{byUTM: make(map[string]store.Link, len(links))}
	for _, l := range links {
		key := NormalizeUTM(l.UTMContent)
		if key == "" {
			continue
		}
		if _, ok := idx.byUTM[key]; !ok {
			idx.byUTM[key] = l
			idx.keys = append(idx.keys, key)
		}
	}
	sort.Strings(idx.keys)
	return idx
}

// Lookup returns the link for a raw UTM content value.
func (idx *AttributionIndex) Lookup(utm string) (store.Link, bool) {
	l, ok := idx.byUTM[NormalizeUTM(utm)]
	return l, ok
}

// Keys lists the normalized UTM keys, sorted. The deal query compares them against the
// normalized column, so any casing of a linked UTM is fetched.
func (idx *AttributionIndex) Keys() []string {
	return idx.keys
}

func (idx *AttributionIndex) Len() int {
	return len(idx.byUTM)
}
