// Package sitegen turns the compiled pipeline outputs into the static site
// tree: index pages, detail pages, facet listings, search page, sitemap,
// robots and feed. Markup generation sits behind the Renderer interface;
// sitegen prepares fully-resolved page data and writes whatever the
// renderer returns.
package sitegen

import (
	"github.com/katarogu/katarogu/api"
	"github.com/katarogu/katarogu/internal/related"
)

// Site carries the site-level fields every page shares.
type Site struct {
	Name        string
	BaseURL     string // "" when not configured
	Description string
}

// Pager describes one page's position inside its view. Prev and Next are
// site-relative paths; empty means "at the boundary".
type Pager struct {
	Page    int
	Total   int
	Prev    string
	HasPrev bool
	Next    string
	HasNext bool
}

// SortTab is one entry of the sort-view tab bar.
type SortTab struct {
	ID    string
	Label string
	Href  string // site-relative
}

// Common is the part of the payload shared by all page kinds.
type Common struct {
	Site         Site
	Path         string // site-relative, e.g. "works/abc123/"
	CanonicalURL string // "" without a base URL
	RootPath     string // "../" * depth
	Title        string
	Heading      string
	NavActive    string
}

// IndexPage is a paginated record listing (home, sort views, facet groups).
type IndexPage struct {
	Common
	Works    []api.Work
	Pager    *Pager
	SortTabs []SortTab
	SortID   string
}

// ListItem is one link of a facet hub page.
type ListItem struct {
	Name string
	Href string
}

// ListPage is a facet hub: all keys of one facet as links.
type ListPage struct {
	Common
	Items []ListItem
}

// DetailPage carries everything one record's page needs, display flags
// included — the renderer does no computation of its own.
type DetailPage struct {
	Common
	Work             api.Work
	LightboxImages   []string
	GridImages       []string
	VideoAspectRatio string
	Related          related.Sets
}

// SearchPage references the chunked search index artifacts.
type SearchPage struct {
	Common
	ManifestPath string
	ScriptPath   string
}

// FeaturedPage links to the curated sort views.
type FeaturedPage struct {
	Common
	Links []ListItem
}

// Renderer produces markup for prepared page data. The default is the
// embedded html/template implementation; tests may substitute their own.
type Renderer interface {
	RenderIndex(p *IndexPage) ([]byte, error)
	RenderList(p *ListPage) ([]byte, error)
	RenderDetail(p *DetailPage) ([]byte, error)
	RenderSearch(p *SearchPage) ([]byte, error)
	RenderFeatured(p *FeaturedPage) ([]byte, error)
}
