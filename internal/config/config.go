// Package config loads the site configuration from an HCL file with
// environment overrides. A missing file is not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Fetch configures the upstream listing API client.
type Fetch struct {
	Endpoint  string `hcl:"endpoint,optional"`
	Site      string `hcl:"site,optional"`
	Service   string `hcl:"service,optional"`
	Floor     string `hcl:"floor,optional"`
	Hits      int    `hcl:"hits,optional"`
	DatePages int    `hcl:"date_pages,optional"`
	RankPages int    `hcl:"rank_pages,optional"`
	SleepMS   int    `hcl:"sleep_ms,optional"`
	TimeoutS  int    `hcl:"timeout_s,optional"`
}

// Config is the full site configuration.
type Config struct {
	SiteName    string `hcl:"site_name,optional"`
	SiteURL     string `hcl:"site_url,optional"`
	Description string `hcl:"description,optional"`

	PerPage        int `hcl:"per_page,optional"`
	StoreChunkSize int `hcl:"store_chunk_size,optional"`
	MaxTotalWorks  int `hcl:"max_total_works,optional"`
	RSSItems       int `hcl:"rss_items,optional"`

	Fetch *Fetch `hcl:"fetch,block"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		SiteName:       "Catalog",
		PerPage:        60,
		StoreChunkSize: 500,
		MaxTotalWorks:  20000,
		RSSItems:       50,
		Fetch: &Fetch{
			Endpoint:  "https://api.dmm.com/affiliate/v3/ItemList",
			Site:      "FANZA",
			Service:   "digital",
			Floor:     "videoa",
			Hits:      100,
			DatePages: 5,
			RankPages: 3,
			SleepMS:   600,
			TimeoutS:  30,
		},
	}
}

// Load reads an HCL config file, overlaying it onto the defaults.
// A missing file yields the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("stat config %s: %w", path, err)
	}

	var in Config
	if err := hclsimple.DecodeFile(path, nil, &in); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	if in.SiteName != "" {
		cfg.SiteName = in.SiteName
	}
	if in.SiteURL != "" {
		cfg.SiteURL = in.SiteURL
	}
	if in.Description != "" {
		cfg.Description = in.Description
	}
	if in.PerPage > 0 {
		cfg.PerPage = in.PerPage
	}
	if in.StoreChunkSize > 0 {
		cfg.StoreChunkSize = in.StoreChunkSize
	}
	if in.MaxTotalWorks > 0 {
		cfg.MaxTotalWorks = in.MaxTotalWorks
	}
	if in.RSSItems > 0 {
		cfg.RSSItems = in.RSSItems
	}
	if in.Fetch != nil {
		f := cfg.Fetch
		if in.Fetch.Endpoint != "" {
			f.Endpoint = in.Fetch.Endpoint
		}
		if in.Fetch.Site != "" {
			f.Site = in.Fetch.Site
		}
		if in.Fetch.Service != "" {
			f.Service = in.Fetch.Service
		}
		if in.Fetch.Floor != "" {
			f.Floor = in.Fetch.Floor
		}
		if in.Fetch.Hits > 0 {
			f.Hits = in.Fetch.Hits
		}
		if in.Fetch.DatePages > 0 {
			f.DatePages = in.Fetch.DatePages
		}
		if in.Fetch.RankPages > 0 {
			f.RankPages = in.Fetch.RankPages
		}
		if in.Fetch.SleepMS > 0 {
			f.SleepMS = in.Fetch.SleepMS
		}
		if in.Fetch.TimeoutS > 0 {
			f.TimeoutS = in.Fetch.TimeoutS
		}
	}
	return cfg, nil
}

// ResolveBaseURL picks the canonical base URL for sitemap/feed/canonical
// links. Precedence: SITE_URL env var, the config file, store metadata, a
// GitHub Pages guess from GITHUB_REPOSITORY. Empty means "not configured";
// callers degrade to stubs rather than failing the build. A non-empty
// result always ends in "/".
func ResolveBaseURL(cfgSiteURL string, metaURLs ...string) string {
	base := strings.TrimSpace(os.Getenv("SITE_URL"))
	if base == "" {
		base = strings.TrimSpace(cfgSiteURL)
	}
	for _, u := range metaURLs {
		if base != "" {
			break
		}
		base = strings.TrimSpace(u)
	}
	if base == "" {
		if repo := strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY")); strings.Contains(repo, "/") {
			parts := strings.SplitN(repo, "/", 2)
			base = fmt.Sprintf("https://%s.github.io/%s/", parts[0], parts[1])
		}
	}
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// Credentials returns the upstream API credentials from the environment,
// stripped of stray quoting.
func Credentials() (apiID, affiliateID string) {
	clean := func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.Trim(s, `"'`)
		return strings.TrimSpace(s)
	}
	return clean(os.Getenv("KATAROGU_API_ID")), clean(os.Getenv("KATAROGU_AFFILIATE_ID"))
}
