package fetch

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/normalize"
)

var movieSizeRe = regexp.MustCompile(`^size_(\d+)_(\d+)$`)

// FromItem projects one raw upstream item into a canonical record. rank is
// the item's 1-based position in the popularity listing, nil outside it.
// Missing and reshaped fields degrade to absent; the caller rejects records
// without id or title.
func FromItem(item map[string]any, rank *int) api.Work {
	w := api.Work{
		ID:    normalize.CleanString(item["content_id"]),
		Title: normalize.CleanString(item["title"]),
		Rank:  rank,
	}
	// The listing API rarely carries a description; the title is the floor.
	w.Description = w.Title

	official := item["affiliateURL"]
	for _, alt := range []string{"affiliateUrl", "URL", "url"} {
		if normalize.CleanString(official) != "" {
			break
		}
		official = item[alt]
	}
	w.OfficialURL = normalize.SafeHTTPS(normalize.CleanString(official))

	if img, ok := item["imageURL"].(map[string]any); ok {
		hero := normalize.CleanString(img["large"])
		if hero == "" {
			hero = normalize.CleanString(img["list"])
		}
		if hero == "" {
			hero = normalize.CleanString(img["small"])
		}
		w.HeroImage = normalize.SafeHTTPS(hero)
	}

	date := normalize.CleanString(item["date"])
	if date == "" {
		date = normalize.CleanString(item["release_date"])
	}
	w.ReleaseDate = normalize.DateForSort(date)
	w.ReleasedAt = normalize.ParseReleaseDate(w.ReleaseDate)

	if info, ok := item["iteminfo"].(map[string]any); ok {
		w.Tags = normalize.Names(info["genre"])
		w.Performers = normalize.Names(info["actress"])
		w.Publisher = first(normalize.Names(info["maker"]))
		w.Series = first(normalize.Names(info["series"]))
		w.Label = first(normalize.Names(info["label"]))
	}

	w.SampleImagesSmall, w.SampleImagesLarge = sampleImages(item["sampleImageURL"])
	w.SampleMovie, w.SampleMovieURLs, w.SampleMovieSize = bestMovie(item["sampleMovieURL"])

	if review, ok := item["review"].(map[string]any); ok {
		w.ReviewCount = normalize.Int(review["count"])
		w.ReviewAverage = normalize.Float(review["average"])
	}
	w.PriceMin = minPrice(item["prices"])

	return w
}

func first(xs []string) string {
	if len(xs) == 0 {
		return ""
	}
	return xs[0]
}

// sampleImages handles the nested sampleImageURL shape
// {sample_s: {image: [...]}, sample_l: {image: [...]}} with fallbacks for
// the older flat array/string forms.
func sampleImages(v any) (small, large []string) {
	d, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	return pullImages(d["sample_s"]), pullImages(d["sample_l"])
}

func pullImages(container any) []string {
	var out []string
	appendURL := func(v any) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, normalize.SafeHTTPS(s))
		}
	}
	switch c := container.(type) {
	case map[string]any:
		switch img := c["image"].(type) {
		case []any:
			for _, x := range img {
				appendURL(x)
			}
		case string:
			appendURL(img)
		}
	case []any:
		for _, it := range c {
			switch e := it.(type) {
			case map[string]any:
				switch img := e["image"].(type) {
				case []any:
					for _, x := range img {
						appendURL(x)
					}
				case string:
					appendURL(img)
				}
			case string:
				appendURL(e)
			}
		}
	case string:
		appendURL(c)
	}
	return out
}

// bestMovie picks the largest size_W_H variant out of sampleMovieURL and
// returns it with the full variant map and its dimensions.
func bestMovie(v any) (string, map[string]string, *api.MovieSize) {
	d, ok := v.(map[string]any)
	if !ok {
		return "", nil, nil
	}

	urls := map[string]string{}
	var best string
	var bestSize *api.MovieSize
	bestArea := -1

	for k, raw := range d {
		u, ok := raw.(string)
		if !ok || strings.TrimSpace(u) == "" || !strings.HasPrefix(k, "size_") {
			continue
		}
		uu := normalize.SafeHTTPS(strings.TrimSpace(u))
		urls[k] = uu

		m := movieSizeRe.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		w := atoi(m[1])
		h := atoi(m[2])
		area := w * h
		if area > bestArea || (area == bestArea && bestSize != nil && w > bestSize.W) {
			bestArea = area
			best = uu
			bestSize = &api.MovieSize{W: w, H: h}
		}
	}
	if len(urls) == 0 {
		return "", nil, nil
	}
	return best, urls, bestSize
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// minPrice digs the smallest delivery price out of prices.deliveries.delivery,
// which may be a list or a single object.
func minPrice(v any) *int {
	prices, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	deliveries, ok := prices["deliveries"].(map[string]any)
	if !ok {
		return nil
	}
	var best *int
	consider := func(d any) {
		m, ok := d.(map[string]any)
		if !ok {
			return
		}
		if p := normalize.Int(m["price"]); p != nil {
			if best == nil || *p < *best {
				best = p
			}
		}
	}
	switch delivery := deliveries["delivery"].(type) {
	case []any:
		for _, d := range delivery {
			consider(d)
		}
	case map[string]any:
		consider(delivery)
	}
	return best
}
