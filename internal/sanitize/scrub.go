package sanitize

import (
	"context"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/normalize"
)

// Result summarizes a Scrub pass.
type Result struct {
	Checked int
	Changed int
}

// Scrub cleans sample-image lists in place. Hint URLs and hero duplicates
// are always filtered out; then one representative candidate per record is
// probed, and a placeholder verdict drops both sample lists entirely.
// maxCheck limits the pass to the first N records (0 means all). This is
// the only pipeline step that mutates stored records.
func Scrub(ctx context.Context, works []api.Work, det *Detector, maxCheck int) Result {
	limit := len(works)
	if maxCheck > 0 && maxCheck < limit {
		limit = maxCheck
	}

	var res Result
	for i := 0; i < limit; i++ {
		if ctx.Err() != nil {
			break
		}
		w := &works[i]
		res.Checked++

		hero := normalize.SafeHTTPS(w.HeroImage)
		small := filterSamples(w.SampleImagesSmall, hero)
		large := filterSamples(w.SampleImagesLarge, hero)

		candidate := ""
		if len(large) > 0 {
			candidate = large[0]
		} else if len(small) > 0 {
			candidate = small[0]
		}

		if candidate != "" && det.IsPlaceholder(ctx, candidate) {
			if len(w.SampleImagesSmall) > 0 || len(w.SampleImagesLarge) > 0 {
				w.SampleImagesSmall = nil
				w.SampleImagesLarge = nil
				res.Changed++
			}
			continue
		}

		if !eqList(w.SampleImagesSmall, small) || !eqList(w.SampleImagesLarge, large) {
			res.Changed++
		}
		w.SampleImagesSmall = small
		w.SampleImagesLarge = large
	}
	return res
}

// filterSamples drops blank entries, hint URLs, and duplicates of the hero
// image, upgrading schemes along the way.
func filterSamples(urls []string, hero string) []string {
	var out []string
	for _, u := range urls {
		uu := normalize.SafeHTTPS(u)
		if uu == "" || HasHint(uu) {
			continue
		}
		if hero != "" && uu == hero {
			continue
		}
		out = append(out, uu)
	}
	return out
}

func eqList(a, b []string) bool {
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
