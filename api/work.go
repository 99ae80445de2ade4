package api

import "time"

// Work represents one catalog entry ("work") as stored on disk.
// Optional scalar facets use pointers so "not reported" stays distinct
// from an explicit zero — the incremental merger depends on that.
type Work struct {
	// ID is the stable upstream identity and the merge key.
	ID    string `json:"id"`
	Title string `json:"title"`
	// Description falls back to Title during normalization.
	Description string `json:"description,omitempty"`
	// ReleaseDate is a free-form date string, normalized to
	// "YYYY-MM-DD[ rest]" where possible. Parsing for sort order is
	// best-effort; see ReleasedAt.
	ReleaseDate string `json:"release_date,omitempty"`

	// Tags and Performers preserve upstream order and may repeat values.
	Tags       []string `json:"tags,omitempty"`
	Performers []string `json:"performers,omitempty"`

	Publisher string `json:"publisher,omitempty"`
	Series    string `json:"series,omitempty"`
	Label     string `json:"label,omitempty"`

	HeroImage   string `json:"hero_image,omitempty"`
	OfficialURL string `json:"official_url,omitempty"`

	SampleImagesSmall []string `json:"sample_images_small,omitempty"`
	SampleImagesLarge []string `json:"sample_images_large,omitempty"`

	SampleMovie     string            `json:"sample_movie,omitempty"`
	SampleMovieURLs map[string]string `json:"sample_movie_urls,omitempty"`
	SampleMovieSize *MovieSize        `json:"sample_movie_size,omitempty"`

	// Rank is the upstream popularity rank; smaller is better.
	Rank          *int     `json:"rank,omitempty"`
	ReviewCount   *int     `json:"review_count,omitempty"`
	ReviewAverage *float64 `json:"review_average,omitempty"`
	PriceMin      *int     `json:"price_min,omitempty"`

	// ReleasedAt is the parsed ReleaseDate used for recency ordering.
	// The zero value means "unknown" and sorts after all known dates.
	// Derived at normalization time, never serialized.
	ReleasedAt time.Time `json:"-"`
}

// MovieSize holds the pixel dimensions of the preferred sample movie variant.
type MovieSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

// HasImages reports whether the work carries any non-blank sample image URL.
func (w *Work) HasImages() bool {
	for _, xs := range [][]string{w.SampleImagesLarge, w.SampleImagesSmall} {
		for _, u := range xs {
			if u != "" {
				return true
			}
		}
	}
	return false
}

// ImageCount returns the number of sample images, preferring the large set.
func (w *Work) ImageCount() int {
	if len(w.SampleImagesLarge) > 0 {
		return len(w.SampleImagesLarge)
	}
	return len(w.SampleImagesSmall)
}

// HasMovie reports whether the work carries a sample movie URL,
// either the preferred one or any named variant.
func (w *Work) HasMovie() bool {
	if w.SampleMovie != "" {
		return true
	}
	for _, u := range w.SampleMovieURLs {
		if u != "" {
			return true
		}
	}
	return false
}
