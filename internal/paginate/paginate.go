// Package paginate slices ordered record sequences into fixed-size pages and
// provides the alternate sort views over a snapshot.
package paginate

import (
	"sort"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/index"
)

// Page is one fixed-size slice of an ordered record sequence.
type Page struct {
	// Number is 1-based.
	Number int
	// Total is the page count of this view.
	Total int
	Items []api.Work
	// Prev and Next are absent at the respective boundary.
	Prev *int
	Next *int
}

// Paginate produces ceil(N/P) pages, at least one even for an empty
// sequence. The concatenation of all pages equals the input.
func Paginate(works []api.Work, per int) []Page {
	if per <= 0 {
		per = 1
	}
	total := (len(works) + per - 1) / per
	if total < 1 {
		total = 1
	}

	pages := make([]Page, 0, total)
	for p := 1; p <= total; p++ {
		start := (p - 1) * per
		end := start + per
		if end > len(works) {
			end = len(works)
		}
		pg := Page{Number: p, Total: total, Items: works[start:end]}
		if p > 1 {
			prev := p - 1
			pg.Prev = &prev
		}
		if p < total {
			next := p + 1
			pg.Next = &next
		}
		pages = append(pages, pg)
	}
	return pages
}

// Latest is the global newest-first ordering.
func Latest(snap *index.Snapshot) []api.Work {
	return snap.Sorted()
}

// Rank orders by upstream rank ascending (smaller is better). Records
// without a rank follow all ranked ones, keeping their prior relative order.
func Rank(snap *index.Snapshot) []api.Work {
	out := append([]api.Work(nil), snap.Sorted()...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Rank, out[j].Rank
		if (a == nil) != (b == nil) {
			return a != nil
		}
		return a != nil && *a < *b
	})
	return out
}

// Rating orders by review average descending, ties broken by review count
// then recency. Records without a review average sort last in their prior
// relative order.
func Rating(snap *index.Snapshot) []api.Work {
	out := append([]api.Work(nil), snap.Sorted()...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.ReviewAverage == nil) != (b.ReviewAverage == nil) {
			return a.ReviewAverage != nil
		}
		if a.ReviewAverage == nil {
			return false
		}
		if *a.ReviewAverage != *b.ReviewAverage {
			return *a.ReviewAverage > *b.ReviewAverage
		}
		ac, bc := 0, 0
		if a.ReviewCount != nil {
			ac = *a.ReviewCount
		}
		if b.ReviewCount != nil {
			bc = *b.ReviewCount
		}
		if ac != bc {
			return ac > bc
		}
		return a.ReleasedAt.After(b.ReleasedAt)
	})
	return out
}

// Movies filters to records with a sample movie, keeping the latest order.
func Movies(snap *index.Snapshot) []api.Work {
	var out []api.Work
	for _, w := range snap.Sorted() {
		if w.HasMovie() {
			out = append(out, w)
		}
	}
	return out
}

// Images filters to records with sample images, ordered by image count
// descending then recency.
func Images(snap *index.Snapshot) []api.Work {
	var out []api.Work
	for _, w := range snap.Sorted() {
		if w.HasImages() {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ci, cj := out[i].ImageCount(), out[j].ImageCount(); ci != cj {
			return ci > cj
		}
		return out[i].ReleasedAt.After(out[j].ReleasedAt)
	})
	return out
}
