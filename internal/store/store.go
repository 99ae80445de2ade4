// Package store persists the full record set as a manifest plus ordered
// chunk files. The legacy single-file form is still readable. Loading is
// best-effort: a chunk referenced by the manifest but missing or corrupt is
// skipped with a warning, never a hard failure.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/fsutil"
)

const (
	manifestFile = "works_manifest.json"
	chunksDir    = "works_chunks"
	legacyFile   = "works.json"

	// DefaultChunkSize bounds one chunk file; the last chunk may be smaller.
	DefaultChunkSize = 500
)

// ErrNotFound reports that neither the chunked store nor the legacy file
// exists. This is the only fatal load condition: nothing can be built.
var ErrNotFound = errors.New("store: no works data found")

// Paths returns (manifest, chunks dir, legacy file) under dataDir.
func Paths(dataDir string) (string, string, string) {
	return path.Join(dataDir, manifestFile),
		path.Join(dataDir, chunksDir),
		path.Join(dataDir, legacyFile)
}

// Load reads the store, preferring manifest + chunks and falling back to the
// legacy monolithic file. Returned warnings describe skipped chunks; partial
// data is preferable to a hard failure.
func Load(fs billy.Filesystem, dataDir string) (api.Manifest, []api.Work, []string, error) {
	manifestPath, _, legacyPath := Paths(dataDir)

	var warnings []string

	if data, err := util.ReadFile(fs, manifestPath); err == nil {
		var mf api.Manifest
		if err := json.Unmarshal(data, &mf); err != nil {
			warnings = append(warnings, fmt.Sprintf("manifest unreadable: %v", err))
			return loadLegacy(fs, legacyPath, warnings)
		}
		var works []api.Work
		for _, ch := range mf.Chunks {
			rel := strings.TrimSpace(ch.File)
			if rel == "" {
				continue
			}
			part, err := util.ReadFile(fs, path.Join(dataDir, rel))
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("chunk %s missing, skipped", rel))
				continue
			}
			var ws []api.Work
			if err := json.Unmarshal(part, &ws); err != nil {
				warnings = append(warnings, fmt.Sprintf("chunk %s corrupt, skipped: %v", rel, err))
				continue
			}
			works = append(works, ws...)
		}
		return mf, works, warnings, nil
	}

	return loadLegacy(fs, legacyPath, warnings)
}

// legacyBundle is the old single-file shape: site meta at the top level with
// the records inline under "works".
type legacyBundle struct {
	api.Manifest
	Works []api.Work `json:"works"`
}

func loadLegacy(fs billy.Filesystem, legacyPath string, warnings []string) (api.Manifest, []api.Work, []string, error) {
	data, err := util.ReadFile(fs, legacyPath)
	if err != nil {
		return api.Manifest{}, nil, warnings, ErrNotFound
	}
	var lb legacyBundle
	if err := json.Unmarshal(data, &lb); err != nil {
		return api.Manifest{}, nil, warnings, fmt.Errorf("parse legacy %s: %w", legacyPath, err)
	}
	return lb.Manifest, lb.Works, warnings, nil
}

// SaveOptions tune Save behaviour.
type SaveOptions struct {
	// ChunkSize bounds records per chunk; <= 0 means DefaultChunkSize.
	ChunkSize int
	// CleanupLegacy removes the legacy monolithic file after a chunked save.
	CleanupLegacy bool
}

// Save writes works as manifest + chunks in caller-provided order, removes
// chunk files from a previous save that are no longer referenced, and
// regenerates aggregate statistics. Each file write is atomic (temp +
// rename) but the save is not transactional across files; the loader's
// skip policy covers a torn state.
func Save(fs billy.Filesystem, dataDir string, meta api.Manifest, works []api.Work, opts SaveOptions) (api.Manifest, error) {
	manifestPath, chunksPath, legacyPath := Paths(dataDir)

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if err := fs.MkdirAll(chunksPath, 0o755); err != nil {
		return api.Manifest{}, fmt.Errorf("create chunks dir: %w", err)
	}

	// Stale chunks from a previous save are removed up front so the new
	// manifest never references leftovers.
	if entries, err := fs.ReadDir(chunksPath); err == nil {
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, "works_") && strings.HasSuffix(name, ".json") {
				_ = fs.Remove(path.Join(chunksPath, name))
			}
		}
	}

	withImages, withMovies := 0, 0
	for i := range works {
		if works[i].HasImages() {
			withImages++
		}
		if works[i].HasMovie() {
			withMovies++
		}
	}

	var chunks []api.ChunkRef
	for start := 0; start < len(works); start += chunkSize {
		end := start + chunkSize
		if end > len(works) {
			end = len(works)
		}
		name := fmt.Sprintf("works_%04d.json", start/chunkSize)
		if err := fsutil.WriteJSON(fs, path.Join(chunksPath, name), works[start:end]); err != nil {
			return api.Manifest{}, fmt.Errorf("write chunk %s: %w", name, err)
		}
		chunks = append(chunks, api.ChunkRef{File: path.Join(chunksDir, name), Count: end - start})
	}
	if chunks == nil {
		chunks = []api.ChunkRef{}
	}

	mf := api.Manifest{
		Version:          1,
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339),
		Count:            len(works),
		ChunkSize:        chunkSize,
		WithSampleImages: withImages,
		WithSampleMovies: withMovies,
		Chunks:           chunks,
		SiteName:         strings.TrimSpace(meta.SiteName),
		SiteURL:          strings.TrimSpace(meta.SiteURL),
		BaseURL:          strings.TrimSpace(meta.BaseURL),
		Description:      strings.TrimSpace(meta.Description),
		OGImage:          strings.TrimSpace(meta.OGImage),
	}

	if err := fsutil.WriteJSON(fs, manifestPath, mf); err != nil {
		return api.Manifest{}, fmt.Errorf("write manifest: %w", err)
	}

	if opts.CleanupLegacy {
		_ = fs.Remove(legacyPath)
	}
	return mf, nil
}

