// Package normalize coerces raw upstream records of unknown shape into the
// canonical api.Work. It never fails: a type mismatch degrades the field to
// its default and the rest of the pipeline only ever sees the canonical shape.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/katarogu/katarogu/api"
)

var (
	dateRe     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?`)
	datePartRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(.*)$`)
)

// CleanString stringifies and trims a value. Nil becomes "".
func CleanString(v any) string {
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// CleanList coerces a value into a trimmed string slice, dropping empties.
// Order and duplicate semantic values are preserved.
func CleanList(v any) []string {
	xs, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, x := range xs {
		if t := CleanString(x); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SafeHTTPS upgrades an insecure URL scheme. Non-URL values pass through.
func SafeHTTPS(url string) string {
	url = strings.TrimSpace(url)
	if strings.HasPrefix(url, "http://") {
		return "https://" + url[len("http://"):]
	}
	return url
}

// ParseReleaseDate parses the free-form release date strings the upstream
// emits, e.g. "2012/8/3 10:00", "2026-02-13 10:00:00" or "2026-02-13".
// The zero time means "unknown" and sorts after all known dates.
func ParseReleaseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "  ", " ")

	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}
	}
	atoi := func(x string) int {
		n, _ := strconv.Atoi(x)
		return n
	}
	y, mo, d := atoi(m[1]), atoi(m[2]), atoi(m[3])
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}
	}
	return time.Date(y, time.Month(mo), d, atoi(m[4]), atoi(m[5]), atoi(m[6]), 0, time.UTC)
}

// DateForSort rewrites an upstream date like "2012/8/3 10:00" into a
// zero-padded "2012-08-03 10:00" so lexicographic order matches time order.
// Unrecognized strings pass through unchanged.
func DateForSort(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "/", "-")
	m := datePartRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%s-%02d-%02d%s", m[1], mo, d, m[4])
}

// Names decodes the upstream "one of many, or single, or absent" variance:
// a field may hold [{name: ...}, ...], a single {name: ...}, or nothing.
func Names(v any) []string {
	var out []string
	switch entry := v.(type) {
	case []any:
		for _, it := range entry {
			if m, ok := it.(map[string]any); ok {
				if name := CleanString(m["name"]); name != "" {
					out = append(out, name)
				}
			}
		}
	case map[string]any:
		if name := CleanString(entry["name"]); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Int coerces numeric JSON values (int64, float64, numeric string) into *int.
// Returns nil for absent or non-numeric values.
func Int(v any) *int {
	switch n := v.(type) {
	case nil:
		return nil
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &i
		}
	}
	return nil
}

// Float coerces numeric JSON values into *float64. Nil for anything else.
func Float(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return &f
		}
	}
	return nil
}

// Normalize coerces an arbitrary mapping into a fully-populated Work.
// It rejects nothing: records lacking id or title are excluded by the
// caller, not here. Normalizing an already-normalized record is a no-op.
func Normalize(raw map[string]any) api.Work {
	w := api.Work{
		ID:          CleanString(raw["id"]),
		Title:       CleanString(raw["title"]),
		Description: CleanString(raw["description"]),
		ReleaseDate: DateForSort(CleanString(raw["release_date"])),
		Tags:        CleanList(raw["tags"]),
		Performers:  CleanList(raw["performers"]),
		Publisher:   CleanString(raw["publisher"]),
		Series:      CleanString(raw["series"]),
		Label:       CleanString(raw["label"]),
	}
	if w.Description == "" {
		w.Description = w.Title
	}

	w.HeroImage = SafeHTTPS(CleanString(raw["hero_image"]))

	official := raw["official_url"]
	for _, alt := range []string{"affiliate_url", "affiliateURL", "URL", "url"} {
		if CleanString(official) != "" {
			break
		}
		official = raw[alt]
	}
	w.OfficialURL = SafeHTTPS(CleanString(official))

	w.SampleImagesSmall = upgradeAll(CleanList(raw["sample_images_small"]))
	w.SampleImagesLarge = upgradeAll(CleanList(raw["sample_images_large"]))

	w.SampleMovie = SafeHTTPS(CleanString(raw["sample_movie"]))
	if urls, ok := raw["sample_movie_urls"].(map[string]any); ok {
		movie := make(map[string]string, len(urls))
		for k, v := range urls {
			if u, ok := v.(string); ok && strings.TrimSpace(u) != "" {
				movie[k] = SafeHTTPS(u)
			}
		}
		if len(movie) > 0 {
			w.SampleMovieURLs = movie
		}
	}
	if size, ok := raw["sample_movie_size"].(map[string]any); ok {
		ww, hh := Int(size["w"]), Int(size["h"])
		if ww != nil && hh != nil && *ww > 0 && *hh > 0 {
			w.SampleMovieSize = &api.MovieSize{W: *ww, H: *hh}
		}
	}

	w.Rank = Int(raw["rank"])
	w.ReviewCount = Int(raw["review_count"])
	w.ReviewAverage = Float(raw["review_average"])
	w.PriceMin = Int(raw["price_min"])

	w.ReleasedAt = ParseReleaseDate(w.ReleaseDate)
	return w
}

func upgradeAll(urls []string) []string {
	for i, u := range urls {
		urls[i] = SafeHTTPS(u)
	}
	return urls
}
