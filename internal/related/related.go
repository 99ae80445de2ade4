// Package related computes the bounded related-item lists shown on each
// detail page.
package related

import (
	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/index"
)

// Limit bounds each facet's candidate list.
const Limit = 12

// Sets holds one candidate list per facet for a single record. No record id
// appears in more than one list, and the owning record never appears.
type Sets struct {
	Performer []api.Work
	Publisher []api.Work
	Series    []api.Work
	Tag       []api.Work
}

// Compute resolves related items for every record in the snapshot.
//
// Facets are filled in precedence order performer → publisher → series →
// tag: a candidate consumed by an earlier facet is excluded from the later
// ones, favoring facet diversity over exhaustiveness. Candidates come from
// the snapshot's facet groups, which are already newest-first, so each list
// is the newest Limit records not yet taken. A record whose source field is
// empty gets an empty list for that facet — no fallback substitution.
func Compute(snap *index.Snapshot) map[string]Sets {
	out := make(map[string]Sets, snap.Len())

	for _, w := range snap.Sorted() {
		used := map[string]bool{w.ID: true}

		pick := func(f index.Facet, key string) []api.Work {
			if key == "" {
				return nil
			}
			var sel []api.Work
			for _, cand := range snap.Group(f, key) {
				if used[cand.ID] {
					continue
				}
				sel = append(sel, cand)
				used[cand.ID] = true
				if len(sel) >= Limit {
					break
				}
			}
			return sel
		}

		var s Sets
		if len(w.Performers) > 0 {
			s.Performer = pick(index.Performer, w.Performers[0])
		}
		s.Publisher = pick(index.Publisher, w.Publisher)
		s.Series = pick(index.Series, w.Series)
		if len(w.Tags) > 0 {
			s.Tag = pick(index.Tag, w.Tags[0])
		}
		out[w.ID] = s
	}
	return out
}
