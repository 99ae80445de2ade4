package sitegen

import (
	"testing"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/index"
)

func testSnapshot() *index.Snapshot {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	rank := 1
	return index.Build([]api.Work{
		{
			ID: "w1", Title: "First Work", ReleaseDate: "2024-03-03", ReleasedAt: day(3),
			Tags: []string{"drama"}, Performers: []string{"Ann Act"},
			Publisher: "Studio X", Series: "Series S",
			HeroImage:         "https://img.test/w1.jpg",
			SampleImagesSmall: []string{"https://img.test/w1_s1.jpg"},
			SampleImagesLarge: []string{"https://img.test/w1_l1.jpg"},
			SampleMovie:       "https://mov.test/w1.mp4?size=720_480",
			Rank:              &rank,
		},
		{
			ID: "w2", Title: "Second Work", ReleaseDate: "2024-03-02", ReleasedAt: day(2),
			Tags: []string{"drama", "comedy"}, Publisher: "Studio X",
		},
		{
			ID: "w3", Title: "Third Work", ReleaseDate: "2024-03-01", ReleasedAt: day(1),
		},
	})
}

func testBuilder(t *testing.T, baseURL string) (*Builder, billy.Filesystem) {
	t.Helper()
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	fs := memfs.New()
	return &Builder{
		FS:       fs,
		OutDir:   "docs",
		Renderer: renderer,
		Site:     Site{Name: "Test Catalog", BaseURL: baseURL, Description: "A test catalog"},
		PerPage:  2,
		RSSItems: 10,
		Now:      func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
	}, fs
}

func readFile(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	require.NoError(t, err, path)
	return string(data)
}

func TestBuildEmitsFullTree(t *testing.T) {
	b, fs := testBuilder(t, "https://cat.test/")
	stats, err := b.Build(testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Works)
	assert.Equal(t, 1, stats.SearchChunks)
	assert.Greater(t, stats.Pages, 10)

	for _, path := range []string{
		"docs/index.html",
		"docs/pages/2/index.html",
		"docs/pages/1/index.html", // redirect stub
		"docs/rank/index.html",
		"docs/rating/index.html",
		"docs/movies/index.html",
		"docs/images/index.html",
		"docs/works/w1/index.html",
		"docs/works/w3/index.html",
		"docs/tags/index.html",
		"docs/tags/drama/index.html",
		"docs/performers/Ann_Act/index.html",
		"docs/publishers/Studio_X/index.html",
		"docs/series/Series_S/index.html",
		"docs/featured/index.html",
		"docs/featured/rank/index.html",
		"docs/featured/sample-movies/index.html",
		"docs/featured/sample-images/index.html",
		"docs/search/index.html",
		"docs/assets/style.css",
		"docs/assets/search.js",
		"docs/assets/works_index_manifest.json",
		"docs/assets/works_index_000.json",
		"docs/sitemap.xml",
		"docs/robots.txt",
		"docs/feed.xml",
		"docs/.nojekyll",
	} {
		_, err := fs.Stat(path)
		assert.NoError(t, err, path)
	}
}

func TestBuildHomePage(t *testing.T) {
	b, fs := testBuilder(t, "https://cat.test/")
	_, err := b.Build(testSnapshot())
	require.NoError(t, err)

	home := readFile(t, fs, "docs/index.html")
	assert.Contains(t, home, "First Work")
	assert.Contains(t, home, "Second Work")
	assert.NotContains(t, home, "Third Work", "page size two pushes the oldest to page two")
	assert.Contains(t, home, `href="pages/2/"`, "pager links forward")
	assert.Contains(t, home, `<link rel="canonical" href="https://cat.test/">`)

	page2 := readFile(t, fs, "docs/pages/2/index.html")
	assert.Contains(t, page2, "Third Work")
	assert.Contains(t, page2, `href="../../"`, "pager links back to the view root")
}

func TestBuildDetailPage(t *testing.T) {
	b, fs := testBuilder(t, "https://cat.test/")
	_, err := b.Build(testSnapshot())
	require.NoError(t, err)

	detail := readFile(t, fs, "docs/works/w1/index.html")
	assert.Contains(t, detail, "First Work")
	assert.Contains(t, detail, "aspect-ratio: 720 / 480")
	assert.Contains(t, detail, "https://mov.test/w1.mp4")
	assert.Contains(t, detail, `href="../../performers/Ann_Act/"`)
	assert.Contains(t, detail, "Second Work", "publisher-related work listed")
}

func TestBuildFacetPages(t *testing.T) {
	b, fs := testBuilder(t, "https://cat.test/")
	_, err := b.Build(testSnapshot())
	require.NoError(t, err)

	hub := readFile(t, fs, "docs/tags/index.html")
	assert.Contains(t, hub, `href="../tags/drama/"`)
	assert.Contains(t, hub, `href="../tags/comedy/"`)

	drama := readFile(t, fs, "docs/tags/drama/index.html")
	assert.Contains(t, drama, "First Work")
	assert.Contains(t, drama, "Second Work")
	assert.NotContains(t, drama, "Third Work")
}

func TestBuildSitemapAndFeed(t *testing.T) {
	b, fs := testBuilder(t, "https://cat.test/")
	_, err := b.Build(testSnapshot())
	require.NoError(t, err)

	sitemap := readFile(t, fs, "docs/sitemap.xml")
	assert.Contains(t, sitemap, "<loc>https://cat.test/</loc>")
	assert.Contains(t, sitemap, "<loc>https://cat.test/works/w1/</loc>")
	assert.NotContains(t, sitemap, "pages/1/", "redirect stubs stay out of the sitemap")

	robots := readFile(t, fs, "docs/robots.txt")
	assert.Contains(t, robots, "Sitemap: https://cat.test/sitemap.xml")

	feed := readFile(t, fs, "docs/feed.xml")
	assert.Contains(t, feed, "First Work")
	assert.Contains(t, feed, "https://cat.test/works/w1/")
}

func TestBuildWithoutBaseURL(t *testing.T) {
	b, fs := testBuilder(t, "")
	_, err := b.Build(testSnapshot())
	require.NoError(t, err)

	sitemap := readFile(t, fs, "docs/sitemap.xml")
	assert.Contains(t, sitemap, "no site URL configured")
	assert.NotContains(t, sitemap, "<loc>")

	_, err = fs.Stat("docs/feed.xml")
	assert.Error(t, err, "feed skipped without a base URL")

	robots := readFile(t, fs, "docs/robots.txt")
	assert.NotContains(t, robots, "Sitemap:")

	home := readFile(t, fs, "docs/index.html")
	assert.NotContains(t, home, `rel="canonical"`)
}

func TestBuildClearsPreviousOutput(t *testing.T) {
	b, fs := testBuilder(t, "")
	require.NoError(t, util.WriteFile(fs, "docs/stale/index.html", []byte("old"), 0o644))

	_, err := b.Build(testSnapshot())
	require.NoError(t, err)

	_, err = fs.Stat("docs/stale/index.html")
	assert.Error(t, err, "previous output wiped")
}

func TestAspectRatio(t *testing.T) {
	assert.Equal(t, "640 / 360", aspectRatio(api.Work{
		SampleMovieSize: &api.MovieSize{W: 640, H: 360},
	}))
	assert.Equal(t, "720 / 480", aspectRatio(api.Work{
		SampleMovie: "https://mov.test/a.mp4?size=720_480",
	}))
	assert.Equal(t, "16 / 9", aspectRatio(api.Work{
		SampleMovie: "https://mov.test/a.mp4",
	}))
}

func TestLightboxAndGridImages(t *testing.T) {
	w := api.Work{
		HeroImage:         "https://img.test/hero.jpg",
		SampleImagesLarge: []string{"https://img.test/hero.jpg", "https://img.test/l1.jpg"},
		SampleImagesSmall: []string{"https://img.test/s1.jpg"},
	}
	assert.Equal(t, []string{"https://img.test/hero.jpg", "https://img.test/l1.jpg"}, lightboxImages(w),
		"hero first, duplicates removed")
	assert.Equal(t, []string{"https://img.test/s1.jpg"}, gridImages(w), "small set preferred")

	w.SampleImagesSmall = nil
	assert.Equal(t, w.SampleImagesLarge, gridImages(w))
}

func TestRootPathAndPageDir(t *testing.T) {
	assert.Equal(t, "", rootPath(""))
	assert.Equal(t, "../", rootPath("rank/"))
	assert.Equal(t, "../../", rootPath("works/w1/"))

	assert.Equal(t, "", pageDir("", 1))
	assert.Equal(t, "pages/3/", pageDir("", 3))
	assert.Equal(t, "rank/", pageDir("rank/", 1))
	assert.Equal(t, "rank/pages/2/", pageDir("rank/", 2))
}
