// Package search compiles the client-side filterable catalog: lightweight
// per-record cards grouped into size-bounded chunks plus a manifest carrying
// facet vocabularies and popularity rankings. It is not an inverted index —
// consumers load chunks and filter in place.
package search

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/fsutil"
)

const (
	// ChunkSize bounds cards per chunk file.
	ChunkSize = 600
	// PopularCount bounds each facet's popularity ranking.
	PopularCount = 30

	manifestName = "works_index_manifest.json"
	compatName   = "works_index.json"
)

// Card is the minimal search projection of one record.
type Card struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate string   `json:"release_date"`
	HeroImage   string   `json:"hero_image"`
	Path        string   `json:"path"`
	Tags        []string `json:"tags"`
	Performers  []string `json:"performers"`
	Publisher   string   `json:"publisher"`
	Series      string   `json:"series"`
	HasImg      bool     `json:"has_img"`
	ImgCount    int      `json:"img_count"`
	HasMov      bool     `json:"has_mov"`
	Rank        *int     `json:"rank,omitempty"`
}

// FacetCount is one entry of a popularity ranking.
type FacetCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Manifest describes the emitted chunks and the aggregate facet data.
type Manifest struct {
	Version     int            `json:"version"`
	GeneratedAt string         `json:"generated_at"`
	Total       int            `json:"total"`
	ChunkSize   int            `json:"chunk_size"`
	Chunks      []api.ChunkRef `json:"chunks"`

	PopularTags       []FacetCount `json:"popular_tags"`
	PopularPerformers []FacetCount `json:"popular_performers"`
	PopularPublishers []FacetCount `json:"popular_publishers"`
	PopularSeries     []FacetCount `json:"popular_series"`

	Tags       []string `json:"tags"`
	Performers []string `json:"performers"`
	Publishers []string `json:"publishers"`
	Series     []string `json:"series"`
}

// Index is a compiled search index, ready to write.
type Index struct {
	Cards []Card

	tagCounts       map[string]int
	performerCounts map[string]int
	publisherCounts map[string]int
	seriesCounts    map[string]int
}

// Compile projects every eligible record (non-empty id) into a Card,
// accumulating facet occurrence counts along the way. The input order is
// preserved; callers pass the newest-first sequence.
func Compile(works []api.Work) *Index {
	idx := &Index{
		tagCounts:       map[string]int{},
		performerCounts: map[string]int{},
		publisherCounts: map[string]int{},
		seriesCounts:    map[string]int{},
	}

	for i := range works {
		w := &works[i]
		if w.ID == "" {
			continue
		}
		for _, t := range w.Tags {
			idx.tagCounts[t]++
		}
		for _, p := range w.Performers {
			idx.performerCounts[p]++
		}
		if pub := strings.TrimSpace(w.Publisher); pub != "" {
			idx.publisherCounts[pub]++
		}
		if ser := strings.TrimSpace(w.Series); ser != "" {
			idx.seriesCounts[ser]++
		}

		tags := w.Tags
		if tags == nil {
			tags = []string{}
		}
		performers := w.Performers
		if performers == nil {
			performers = []string{}
		}
		idx.Cards = append(idx.Cards, Card{
			ID:          w.ID,
			Title:       w.Title,
			ReleaseDate: w.ReleaseDate,
			HeroImage:   w.HeroImage,
			Path:        fmt.Sprintf("works/%s/", w.ID),
			Tags:        tags,
			Performers:  performers,
			Publisher:   strings.TrimSpace(w.Publisher),
			Series:      strings.TrimSpace(w.Series),
			HasImg:      w.HasImages(),
			ImgCount:    w.ImageCount(),
			HasMov:      w.HasMovie(),
			Rank:        w.Rank,
		})
	}
	return idx
}

// Write emits the chunk files, the manifest, and — when everything fits in
// one chunk — the single-file compatibility artifact for consumers unaware
// of chunking.
func (idx *Index) Write(fs billy.Filesystem, assetsDir string) (Manifest, error) {
	total := len(idx.Cards)

	var chunks []api.ChunkRef
	for start := 0; start < total; start += ChunkSize {
		end := start + ChunkSize
		if end > total {
			end = total
		}
		name := fmt.Sprintf("works_index_%03d.json", start/ChunkSize)
		if err := fsutil.WriteJSON(fs, path.Join(assetsDir, name), idx.Cards[start:end]); err != nil {
			return Manifest{}, fmt.Errorf("write search chunk %s: %w", name, err)
		}
		chunks = append(chunks, api.ChunkRef{File: name, Count: end - start})
	}
	if chunks == nil {
		chunks = []api.ChunkRef{}
	}

	mf := Manifest{
		Version:           2,
		GeneratedAt:       time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Total:             total,
		ChunkSize:         ChunkSize,
		Chunks:            chunks,
		PopularTags:       popular(idx.tagCounts),
		PopularPerformers: popular(idx.performerCounts),
		PopularPublishers: popular(idx.publisherCounts),
		PopularSeries:     popular(idx.seriesCounts),
		Tags:              vocabulary(idx.tagCounts),
		Performers:        vocabulary(idx.performerCounts),
		Publishers:        vocabulary(idx.publisherCounts),
		Series:            vocabulary(idx.seriesCounts),
	}
	if err := fsutil.WriteJSON(fs, path.Join(assetsDir, manifestName), mf); err != nil {
		return Manifest{}, fmt.Errorf("write search manifest: %w", err)
	}

	if total <= ChunkSize {
		if err := fsutil.WriteJSON(fs, path.Join(assetsDir, compatName), idx.Cards); err != nil {
			return Manifest{}, fmt.Errorf("write compat index: %w", err)
		}
	}
	return mf, nil
}

// popular ranks a facet's keys by descending occurrence count. Ties break
// case-insensitively by name, then byte order, so two runs over the same
// record set produce identical output.
func popular(counts map[string]int) []FacetCount {
	out := make([]FacetCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, FacetCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > PopularCount {
		out = out[:PopularCount]
	}
	return out
}

// vocabulary returns a facet's full key set, case-insensitively sorted.
func vocabulary(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for name := range counts {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i]), strings.ToLower(out[j])
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}
