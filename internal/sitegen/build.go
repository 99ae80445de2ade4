package sitegen

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/gorilla/feeds"

	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/fsutil"
	"github.com/katarogu/katarogu/internal/index"
	"github.com/katarogu/katarogu/internal/paginate"
	"github.com/katarogu/katarogu/internal/related"
	"github.com/katarogu/katarogu/internal/search"
)

//go:embed assets/*
var assetFS embed.FS

// feedDescriptionLimit bounds per-item feed descriptions, in runes.
const feedDescriptionLimit = 180

var movieSizeQueryRe = regexp.MustCompile(`size=(\d+)_(\d+)`)

// Builder writes the complete static site for one snapshot. The output
// directory is wiped and rebuilt from scratch on every run.
type Builder struct {
	FS       billy.Filesystem
	OutDir   string
	Renderer Renderer
	Site     Site
	PerPage  int
	RSSItems int
	// Now stands in for time.Now in tests.
	Now func() time.Time

	// per-run state
	paths []string
	stats Stats
}

// Stats summarizes one build.
type Stats struct {
	Pages        int
	Works        int
	SearchChunks int
}

// view is one of the sort orderings the site exposes.
type view struct {
	id      string
	label   string
	dir     string // "" for the site root
	heading string
	works   func(*index.Snapshot) []api.Work
}

var views = []view{
	{"latest", "Latest", "", "Latest releases", paginate.Latest},
	{"rank", "Rank", "rank/", "Popularity ranking", paginate.Rank},
	{"rating", "Rating", "rating/", "Top rated", paginate.Rating},
	{"movies", "Movies", "movies/", "With sample movies", paginate.Movies},
	{"images", "Images", "images/", "With sample images", paginate.Images},
}

var facetDirs = map[index.Facet]string{
	index.Performer: "performers",
	index.Tag:       "tags",
	index.Publisher: "publishers",
	index.Series:    "series",
}

var facetLabels = map[index.Facet]string{
	index.Performer: "Performers",
	index.Tag:       "Tags",
	index.Publisher: "Publishers",
	index.Series:    "Series",
}

// Build wipes OutDir and regenerates every artifact of the site.
func (b *Builder) Build(snap *index.Snapshot) (Stats, error) {
	b.paths = nil
	b.stats = Stats{Works: snap.Len()}

	if err := util.RemoveAll(b.FS, b.OutDir); err != nil {
		return b.stats, fmt.Errorf("clearing %s: %w", b.OutDir, err)
	}
	if err := b.FS.MkdirAll(b.OutDir, 0o755); err != nil {
		return b.stats, fmt.Errorf("creating %s: %w", b.OutDir, err)
	}
	if err := b.writeAssets(); err != nil {
		return b.stats, err
	}

	idx := search.Compile(snap.Sorted())
	manifest, err := idx.Write(b.FS, path.Join(b.OutDir, "assets"))
	if err != nil {
		return b.stats, fmt.Errorf("writing search index: %w", err)
	}
	b.stats.SearchChunks = len(manifest.Chunks)

	rel := related.Compute(snap)

	for _, v := range views {
		if err := b.writeView(v, v.works(snap)); err != nil {
			return b.stats, err
		}
	}
	for _, f := range index.Facets {
		if err := b.writeFacet(snap, f); err != nil {
			return b.stats, err
		}
	}
	for _, w := range snap.Sorted() {
		if err := b.writeDetail(w, rel[w.ID]); err != nil {
			return b.stats, err
		}
	}
	if err := b.writeFeatured(); err != nil {
		return b.stats, err
	}
	if err := b.writeSearchPage(); err != nil {
		return b.stats, err
	}

	now := time.Now().UTC()
	if b.Now != nil {
		now = b.Now().UTC()
	}
	if err := b.writeSitemap(now); err != nil {
		return b.stats, err
	}
	if err := b.writeRobots(); err != nil {
		return b.stats, err
	}
	if err := b.writeFeed(snap, now); err != nil {
		return b.stats, err
	}
	if err := fsutil.WriteFile(b.FS, path.Join(b.OutDir, ".nojekyll"), nil); err != nil {
		return b.stats, err
	}
	return b.stats, nil
}

func (b *Builder) writeAssets() error {
	return fs.WalkDir(assetFS, "assets", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := assetFS.ReadFile(p)
		if err != nil {
			return err
		}
		return fsutil.WriteFile(b.FS, path.Join(b.OutDir, p), data)
	})
}

// emit writes one directory-style page (dir/index.html) and records it for
// the sitemap.
func (b *Builder) emit(dir string, html []byte) error {
	if err := fsutil.WriteFile(b.FS, path.Join(b.OutDir, dir, "index.html"), html); err != nil {
		return err
	}
	b.paths = append(b.paths, dir)
	b.stats.Pages++
	return nil
}

// redirect writes a directory-style stub that forwards to target, a path
// relative to the stub's directory. Redirect stubs stay out of the sitemap.
func (b *Builder) redirect(dir, target string) error {
	html := fmt.Sprintf(`<!doctype html>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0; url=%s">
<link rel="canonical" href="%s">
<a href="%s">Redirecting...</a>
`, target, target, target)
	if err := fsutil.WriteFile(b.FS, path.Join(b.OutDir, dir, "index.html"), []byte(html)); err != nil {
		return err
	}
	b.stats.Pages++
	return nil
}

func (b *Builder) common(dir, title, heading, navActive string) Common {
	return Common{
		Site:         b.Site,
		Path:         dir,
		CanonicalURL: b.canonical(dir),
		RootPath:     rootPath(dir),
		Title:        title,
		Heading:      heading,
		NavActive:    navActive,
	}
}

func (b *Builder) canonical(dir string) string {
	if b.Site.BaseURL == "" {
		return ""
	}
	return b.Site.BaseURL + dir
}

// rootPath returns the "../" chain that leads from dir back to the site root.
func rootPath(dir string) string {
	return strings.Repeat("../", strings.Count(dir, "/"))
}

// pageDir returns the directory of page n inside a view rooted at prefix.
// Page one lives at the view root itself.
func pageDir(prefix string, n int) string {
	if n <= 1 {
		return prefix
	}
	return prefix + "pages/" + strconv.Itoa(n) + "/"
}

func (b *Builder) sortTabs() []SortTab {
	tabs := make([]SortTab, 0, len(views))
	for _, v := range views {
		tabs = append(tabs, SortTab{ID: v.id, Label: v.label, Href: v.dir})
	}
	return tabs
}

// writeView emits every page of one sort ordering, plus a pages/1 stub that
// forwards to the view root so hand-typed URLs keep working.
func (b *Builder) writeView(v view, works []api.Work) error {
	navActive := "home"
	if v.dir != "" {
		navActive = "featured"
	}
	if err := b.writePaged(v.dir, v.heading, navActive, works, b.sortTabs(), v.id); err != nil {
		return err
	}
	return b.redirect(v.dir+"pages/1/", "../../")
}

// writePaged emits page one at prefix and pages 2..N at prefix/pages/N/.
func (b *Builder) writePaged(prefix, heading, navActive string, works []api.Work, tabs []SortTab, sortID string) error {
	for _, pg := range paginate.Paginate(works, b.PerPage) {
		dir := pageDir(prefix, pg.Number)
		title := heading
		if pg.Number > 1 {
			title = fmt.Sprintf("%s - page %d", heading, pg.Number)
		}
		data := &IndexPage{
			Common:   b.common(dir, title, heading, navActive),
			Works:    pg.Items,
			SortTabs: tabs,
			SortID:   sortID,
		}
		if pg.Total > 1 {
			pager := &Pager{Page: pg.Number, Total: pg.Total}
			if pg.Prev != nil {
				pager.HasPrev = true
				pager.Prev = pageDir(prefix, *pg.Prev)
			}
			if pg.Next != nil {
				pager.HasNext = true
				pager.Next = pageDir(prefix, *pg.Next)
			}
			data.Pager = pager
		}
		html, err := b.Renderer.RenderIndex(data)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", dir, err)
		}
		if err := b.emit(dir, html); err != nil {
			return err
		}
	}
	return nil
}

// writeFacet emits the facet hub and one paged listing per key.
func (b *Builder) writeFacet(snap *index.Snapshot, f index.Facet) error {
	dir := facetDirs[f] + "/"
	label := facetLabels[f]
	keys := snap.Keys(f)

	items := make([]ListItem, 0, len(keys))
	for _, key := range keys {
		items = append(items, ListItem{Name: key, Href: dir + Slugify(key) + "/"})
	}
	hub := &ListPage{
		Common: b.common(dir, label, label, facetDirs[f]),
		Items:  items,
	}
	html, err := b.Renderer.RenderList(hub)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", dir, err)
	}
	if err := b.emit(dir, html); err != nil {
		return err
	}

	for _, key := range keys {
		prefix := dir + Slugify(key) + "/"
		if err := b.writePaged(prefix, key, facetDirs[f], snap.Group(f, key), nil, ""); err != nil {
			return err
		}
		if err := b.redirect(prefix+"pages/1/", "../../"); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeDetail(w api.Work, rel related.Sets) error {
	dir := "works/" + w.ID + "/"
	data := &DetailPage{
		Common:           b.common(dir, w.Title, w.Title, ""),
		Work:             w,
		LightboxImages:   lightboxImages(w),
		GridImages:       gridImages(w),
		VideoAspectRatio: aspectRatio(w),
		Related:          rel,
	}
	html, err := b.Renderer.RenderDetail(data)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", dir, err)
	}
	return b.emit(dir, html)
}

// lightboxImages is the hero followed by the large samples, deduplicated in
// first-seen order.
func lightboxImages(w api.Work) []string {
	var out []string
	seen := make(map[string]bool)
	for _, u := range append([]string{w.HeroImage}, w.SampleImagesLarge...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// gridImages prefers the small samples for the thumbnail grid.
func gridImages(w api.Work) []string {
	if len(w.SampleImagesSmall) > 0 {
		return w.SampleImagesSmall
	}
	return w.SampleImagesLarge
}

// aspectRatio derives the player's CSS aspect-ratio from the recorded movie
// dimensions, falling back to a size token in the movie URL, then to 16:9.
func aspectRatio(w api.Work) string {
	if s := w.SampleMovieSize; s != nil && s.W > 0 && s.H > 0 {
		return fmt.Sprintf("%d / %d", s.W, s.H)
	}
	if m := movieSizeQueryRe.FindStringSubmatch(w.SampleMovie); m != nil {
		return fmt.Sprintf("%s / %s", m[1], m[2])
	}
	return "16 / 9"
}

// writeFeatured emits the featured hub plus stubs for the retired hub-nested
// view URLs.
func (b *Builder) writeFeatured() error {
	data := &FeaturedPage{
		Common: b.common("featured/", "Featured", "Featured", "featured"),
		Links: []ListItem{
			{Name: "Popularity ranking", Href: "rank/"},
			{Name: "Top rated", Href: "rating/"},
			{Name: "With sample movies", Href: "movies/"},
			{Name: "With sample images", Href: "images/"},
		},
	}
	html, err := b.Renderer.RenderFeatured(data)
	if err != nil {
		return fmt.Errorf("rendering featured/: %w", err)
	}
	if err := b.emit("featured/", html); err != nil {
		return err
	}
	for old, target := range map[string]string{
		"featured/rank/":          "../../rank/",
		"featured/sample-movies/": "../../movies/",
		"featured/sample-images/": "../../images/",
	} {
		if err := b.redirect(old, target); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeSearchPage() error {
	data := &SearchPage{
		Common:       b.common("search/", "Search", "Search", "search"),
		ManifestPath: "../assets/works_index_manifest.json",
		ScriptPath:   "../assets/search.js",
	}
	html, err := b.Renderer.RenderSearch(data)
	if err != nil {
		return fmt.Errorf("rendering search/: %w", err)
	}
	return b.emit("search/", html)
}

// writeSitemap emits sitemap.xml over every emitted page. Without a base URL
// absolute locations cannot be formed, so a commented stub is written instead.
func (b *Builder) writeSitemap(now time.Time) error {
	var sb strings.Builder
	if b.Site.BaseURL == "" {
		sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
		sb.WriteString("<!-- no site URL configured; sitemap entries omitted -->\n")
		return fsutil.WriteFile(b.FS, path.Join(b.OutDir, "sitemap.xml"), []byte(sb.String()))
	}
	day := now.Format("2006-01-02")
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<urlset xmlns=\"http://www.sitemaps.org/schemas/sitemap/0.9\">\n")
	for _, p := range b.paths {
		sb.WriteString("  <url><loc>")
		sb.WriteString(escapeXML(b.Site.BaseURL + p))
		sb.WriteString("</loc><lastmod>")
		sb.WriteString(day)
		sb.WriteString("</lastmod></url>\n")
	}
	sb.WriteString("</urlset>\n")
	return fsutil.WriteFile(b.FS, path.Join(b.OutDir, "sitemap.xml"), []byte(sb.String()))
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&apos;", `"`, "&quot;")
	return r.Replace(s)
}

func (b *Builder) writeRobots() error {
	var sb strings.Builder
	sb.WriteString("User-agent: *\nAllow: /\n")
	if b.Site.BaseURL != "" {
		sb.WriteString("Sitemap: " + b.Site.BaseURL + "sitemap.xml\n")
	}
	return fsutil.WriteFile(b.FS, path.Join(b.OutDir, "robots.txt"), []byte(sb.String()))
}

// writeFeed emits an RSS feed of the newest records. Feeds need absolute
// links, so without a base URL the feed is skipped.
func (b *Builder) writeFeed(snap *index.Snapshot, now time.Time) error {
	if b.Site.BaseURL == "" {
		return nil
	}
	feed := &feeds.Feed{
		Title:       b.Site.Name,
		Link:        &feeds.Link{Href: b.Site.BaseURL},
		Description: b.Site.Description,
		Created:     now,
	}
	limit := b.RSSItems
	if limit <= 0 {
		limit = 50
	}
	for _, w := range snap.Sorted() {
		if len(feed.Items) >= limit {
			break
		}
		link := b.Site.BaseURL + "works/" + w.ID + "/"
		item := &feeds.Item{
			Id:          link,
			Title:       w.Title,
			Link:        &feeds.Link{Href: link},
			Description: truncateRunes(w.Description, feedDescriptionLimit),
		}
		if !w.ReleasedAt.IsZero() {
			item.Created = w.ReleasedAt
		}
		feed.Items = append(feed.Items, item)
	}
	rss, err := feed.ToRss()
	if err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}
	return fsutil.WriteFile(b.FS, path.Join(b.OutDir, "feed.xml"), []byte(rss))
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}
