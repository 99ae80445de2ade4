package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katarogu/katarogu/api"
)

func sampleWorks(n int) []api.Work {
	works := make([]api.Work, 0, n)
	for i := 0; i < n; i++ {
		works = append(works, api.Work{
			ID:          fmt.Sprintf("w%03d", i),
			Title:       fmt.Sprintf("Work %d", i),
			ReleaseDate: fmt.Sprintf("2024-01-%02d", i%28+1),
		})
	}
	return works
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := memfs.New()
	works := sampleWorks(5)
	works[0].SampleImagesLarge = []string{"https://img.test/a.jpg"}
	works[1].SampleMovie = "https://mov.test/b.mp4"

	meta := api.Manifest{SiteName: " My Site ", SiteURL: "https://site.test/"}
	mf, err := Save(fs, "data", meta, works, SaveOptions{ChunkSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, mf.Version)
	assert.Equal(t, 5, mf.Count)
	assert.Equal(t, 1, mf.WithSampleImages)
	assert.Equal(t, 1, mf.WithSampleMovies)
	assert.Equal(t, "My Site", mf.SiteName, "site meta trimmed")
	require.Len(t, mf.Chunks, 3)
	assert.Equal(t, "works_chunks/works_0000.json", mf.Chunks[0].File)
	assert.Equal(t, 2, mf.Chunks[0].Count)
	assert.Equal(t, 1, mf.Chunks[2].Count)

	loadedMf, loaded, warnings, err := Load(fs, "data")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, works, loaded)
	assert.Equal(t, mf.Count, loadedMf.Count)
}

func TestLoadSkipsBrokenChunks(t *testing.T) {
	fs := memfs.New()
	_, err := Save(fs, "data", api.Manifest{}, sampleWorks(6), SaveOptions{ChunkSize: 2})
	require.NoError(t, err)

	require.NoError(t, fs.Remove("data/works_chunks/works_0001.json"))
	require.NoError(t, util.WriteFile(fs, "data/works_chunks/works_0002.json", []byte("{nope"), 0o644))

	_, loaded, warnings, err := Load(fs, "data")
	require.NoError(t, err, "broken chunks degrade, never fail")
	assert.Len(t, loaded, 2, "only the intact chunk survives")
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "missing")
	assert.Contains(t, warnings[1], "corrupt")
}

func TestLoadLegacyFallback(t *testing.T) {
	fs := memfs.New()
	bundle := map[string]any{
		"site_name": "Legacy Site",
		"works": []api.Work{
			{ID: "w1", Title: "One"},
			{ID: "w2", Title: "Two"},
		},
	}
	data, err := json.Marshal(bundle)
	require.NoError(t, err)
	require.NoError(t, util.WriteFile(fs, "data/works.json", data, 0o644))

	mf, loaded, warnings, err := Load(fs, "data")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Legacy Site", mf.SiteName)
	require.Len(t, loaded, 2)
	assert.Equal(t, "w1", loaded[0].ID)
}

func TestLoadNotFound(t *testing.T) {
	fs := memfs.New()
	_, _, _, err := Load(fs, "data")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRemovesStaleChunks(t *testing.T) {
	fs := memfs.New()
	_, err := Save(fs, "data", api.Manifest{}, sampleWorks(6), SaveOptions{ChunkSize: 2})
	require.NoError(t, err)

	_, err = Save(fs, "data", api.Manifest{}, sampleWorks(2), SaveOptions{ChunkSize: 2})
	require.NoError(t, err)

	entries, err := fs.ReadDir("data/works_chunks")
	require.NoError(t, err)
	require.Len(t, entries, 1, "chunks from the larger save are gone")
	assert.Equal(t, "works_0000.json", entries[0].Name())
}

func TestSaveCleanupLegacy(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "data/works.json", []byte(`{"works":[]}`), 0o644))

	_, err := Save(fs, "data", api.Manifest{}, sampleWorks(1), SaveOptions{CleanupLegacy: true})
	require.NoError(t, err)

	_, err = fs.Stat("data/works.json")
	assert.Error(t, err, "legacy file removed after chunked save")
}

func TestSaveEmptyStore(t *testing.T) {
	fs := memfs.New()
	mf, err := Save(fs, "data", api.Manifest{}, nil, SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, mf.Count)
	assert.NotNil(t, mf.Chunks)
	assert.Empty(t, mf.Chunks)

	_, loaded, _, err := Load(fs, "data")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
