// Package merge combines newly-fetched records with the existing store.
package merge

import (
	"sort"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/normalize"
)

// Mode selects how Apply treats records whose id is not yet stored.
type Mode int

const (
	// UpdateOnly merges into existing ids and never grows the store.
	UpdateOnly Mode = iota
	// Full also inserts unseen ids, bounded by a total-record cap.
	Full
)

// Merge combines an old record with a newly-fetched one, field by field.
// A nil old is a pure insert. Otherwise new wins only where it is present
// and non-empty; absent or empty new fields keep the stored value. A field
// that legitimately becomes empty upstream can therefore never be cleared
// here — a known, accepted limitation of the wire format.
func Merge(old *api.Work, next api.Work) api.Work {
	if old == nil {
		return next
	}
	merged := *old

	if next.Title != "" {
		merged.Title = next.Title
	}
	if next.Description != "" {
		merged.Description = next.Description
	}
	if next.ReleaseDate != "" {
		merged.ReleaseDate = next.ReleaseDate
	}
	if next.OfficialURL != "" {
		merged.OfficialURL = next.OfficialURL
	}
	if next.HeroImage != "" {
		merged.HeroImage = next.HeroImage
	}
	if next.Publisher != "" {
		merged.Publisher = next.Publisher
	}
	if next.Series != "" {
		merged.Series = next.Series
	}
	if next.Label != "" {
		merged.Label = next.Label
	}

	if len(next.Tags) > 0 {
		merged.Tags = next.Tags
	}
	if len(next.Performers) > 0 {
		merged.Performers = next.Performers
	}
	if len(next.SampleImagesSmall) > 0 {
		merged.SampleImagesSmall = next.SampleImagesSmall
	}
	if len(next.SampleImagesLarge) > 0 {
		merged.SampleImagesLarge = next.SampleImagesLarge
	}

	if next.SampleMovie != "" {
		merged.SampleMovie = next.SampleMovie
	}
	if len(next.SampleMovieURLs) > 0 {
		merged.SampleMovieURLs = next.SampleMovieURLs
	}
	if next.SampleMovieSize != nil {
		merged.SampleMovieSize = next.SampleMovieSize
	}

	if next.ReviewCount != nil {
		merged.ReviewCount = next.ReviewCount
	}
	if next.ReviewAverage != nil {
		merged.ReviewAverage = next.ReviewAverage
	}
	if next.PriceMin != nil {
		merged.PriceMin = next.PriceMin
	}
	if next.Rank != nil {
		merged.Rank = next.Rank
	}

	return merged
}

// Result summarizes an Apply pass.
type Result struct {
	Works   []api.Work
	New     int
	Updated int
}

// Apply merges incoming records into existing ones. UpdateOnly preserves the
// existing order and count. Full appends unseen ids, then orders the whole
// set newest-first and evicts past maxTotal (<= 0 means no cap).
func Apply(existing, incoming []api.Work, mode Mode, maxTotal int) Result {
	byID := make(map[string]*api.Work, len(existing))
	order := make([]string, 0, len(existing))
	for i := range existing {
		if existing[i].ID == "" {
			continue
		}
		w := existing[i]
		byID[w.ID] = &w
		order = append(order, w.ID)
	}

	var res Result
	for _, next := range incoming {
		if next.ID == "" {
			continue
		}
		old, ok := byID[next.ID]
		if !ok {
			if mode == Full {
				w := next
				byID[w.ID] = &w
				order = append(order, w.ID)
				res.New++
			}
			continue
		}
		merged := Merge(old, next)
		if !equal(*old, merged) {
			res.Updated++
		}
		*old = merged
	}

	works := make([]api.Work, 0, len(order))
	for _, id := range order {
		works = append(works, *byID[id])
	}

	if mode == Full {
		sort.SliceStable(works, func(i, j int) bool {
			return normalize.DateForSort(works[i].ReleaseDate) > normalize.DateForSort(works[j].ReleaseDate)
		})
		if maxTotal > 0 && len(works) > maxTotal {
			works = works[:maxTotal]
		}
	}

	res.Works = works
	return res
}

// equal compares the serializable content of two records. Slices and the
// movie URL map are compared element-wise; ReleasedAt is derived state and
// ignored.
func equal(a, b api.Work) bool {
	if a.ID != b.ID || a.Title != b.Title || a.Description != b.Description ||
		a.ReleaseDate != b.ReleaseDate || a.Publisher != b.Publisher ||
		a.Series != b.Series || a.Label != b.Label ||
		a.HeroImage != b.HeroImage || a.OfficialURL != b.OfficialURL ||
		a.SampleMovie != b.SampleMovie {
		return false
	}
	if !eqSlice(a.Tags, b.Tags) || !eqSlice(a.Performers, b.Performers) ||
		!eqSlice(a.SampleImagesSmall, b.SampleImagesSmall) ||
		!eqSlice(a.SampleImagesLarge, b.SampleImagesLarge) {
		return false
	}
	if len(a.SampleMovieURLs) != len(b.SampleMovieURLs) {
		return false
	}
	for k, v := range a.SampleMovieURLs {
		if b.SampleMovieURLs[k] != v {
			return false
		}
	}
	if !eqPtr(a.Rank, b.Rank) || !eqPtr(a.ReviewCount, b.ReviewCount) ||
		!eqPtr(a.PriceMin, b.PriceMin) || !eqPtr(a.ReviewAverage, b.ReviewAverage) {
		return false
	}
	if (a.SampleMovieSize == nil) != (b.SampleMovieSize == nil) {
		return false
	}
	if a.SampleMovieSize != nil && *a.SampleMovieSize != *b.SampleMovieSize {
		return false
	}
	return true
}

func eqSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func eqPtr[T comparable](a, b *T) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
