// Package index builds the per-build relational index over the record set.
// A Snapshot is constructed once per build from the authoritative record
// sequence and never mutated afterwards: build once, read many.
package index

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/normalize"
)

// Facet is a grouping dimension over the record set.
type Facet string

const (
	Tag       Facet = "tag"
	Performer Facet = "performer"
	Publisher Facet = "publisher"
	Series    Facet = "series"
)

// Facets lists all grouping dimensions in their canonical order.
var Facets = []Facet{Tag, Performer, Publisher, Series}

// Snapshot holds the global newest-first ordering plus one bitmap per facet
// key. Ordinals are assigned in display order, so iterating any key's bitmap
// yields that group already sorted newest-first with stable ties.
type Snapshot struct {
	sorted []api.Work // newest-first; ordinal i == sorted[i]
	groups map[Facet]map[string]*roaring.Bitmap
}

// Build sorts the records newest-first (unknown release dates after all
// known ones, ties keeping their prior relative order) and indexes every
// facet key occurrence. The input slice is not modified.
func Build(works []api.Work) *Snapshot {
	sorted := make([]api.Work, len(works))
	copy(sorted, works)
	for i := range sorted {
		if sorted[i].ReleasedAt.IsZero() {
			sorted[i].ReleasedAt = normalize.ParseReleaseDate(sorted[i].ReleaseDate)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].ReleasedAt, sorted[j].ReleasedAt
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.After(b)
	})

	groups := make(map[Facet]map[string]*roaring.Bitmap, len(Facets))
	for _, f := range Facets {
		groups[f] = make(map[string]*roaring.Bitmap)
	}
	add := func(f Facet, key string, ord uint32) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		bm, ok := groups[f][key]
		if !ok {
			bm = roaring.New()
			groups[f][key] = bm
		}
		bm.Add(ord)
	}

	for i := range sorted {
		ord := uint32(i)
		for _, t := range sorted[i].Tags {
			add(Tag, t, ord)
		}
		for _, p := range sorted[i].Performers {
			add(Performer, p, ord)
		}
		add(Publisher, sorted[i].Publisher, ord)
		add(Series, sorted[i].Series, ord)
	}

	return &Snapshot{sorted: sorted, groups: groups}
}

// Len returns the total record count.
func (s *Snapshot) Len() int { return len(s.sorted) }

// Sorted returns the full record sequence newest-first.
// Callers must treat the slice as read-only.
func (s *Snapshot) Sorted() []api.Work { return s.sorted }

// Group returns the records carrying the given facet key, newest-first.
// An unknown key yields an empty list.
func (s *Snapshot) Group(f Facet, key string) []api.Work {
	bm, ok := s.groups[f][key]
	if !ok {
		return nil
	}
	out := make([]api.Work, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, s.sorted[it.Next()])
	}
	return out
}

// GroupSize returns the number of records carrying the given facet key.
func (s *Snapshot) GroupSize(f Facet, key string) int {
	bm, ok := s.groups[f][key]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// Keys returns all keys of a facet, sorted case-insensitively.
func (s *Snapshot) Keys(f Facet) []string {
	keys := make([]string, 0, len(s.groups[f]))
	for k := range s.groups[f] {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if a == b {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}
