package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 60, cfg.PerPage)
	assert.Equal(t, 500, cfg.StoreChunkSize)
	require.NotNil(t, cfg.Fetch)
	assert.Equal(t, 100, cfg.Fetch.Hits)
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
site_name   = "My Catalog"
site_url    = "https://catalog.example.test/"
per_page    = 24

fetch {
  hits       = 50
  date_pages = 2
}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "My Catalog", cfg.SiteName)
	assert.Equal(t, "https://catalog.example.test/", cfg.SiteURL)
	assert.Equal(t, 24, cfg.PerPage)
	assert.Equal(t, 500, cfg.StoreChunkSize, "unset fields keep defaults")
	assert.Equal(t, 50, cfg.Fetch.Hits)
	assert.Equal(t, 2, cfg.Fetch.DatePages)
	assert.Equal(t, 3, cfg.Fetch.RankPages, "unset block fields keep defaults")
}

func TestLoadBadHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`site_name = `), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolveBaseURL(t *testing.T) {
	t.Run("env wins", func(t *testing.T) {
		t.Setenv("SITE_URL", "https://env.test")
		t.Setenv("GITHUB_REPOSITORY", "")
		assert.Equal(t, "https://env.test/", ResolveBaseURL("https://cfg.test/"))
	})
	t.Run("config next", func(t *testing.T) {
		t.Setenv("SITE_URL", "")
		t.Setenv("GITHUB_REPOSITORY", "")
		assert.Equal(t, "https://cfg.test/", ResolveBaseURL("https://cfg.test/", "https://meta.test/"))
	})
	t.Run("store meta next", func(t *testing.T) {
		t.Setenv("SITE_URL", "")
		t.Setenv("GITHUB_REPOSITORY", "")
		assert.Equal(t, "https://meta.test/", ResolveBaseURL("", "", "https://meta.test/"))
	})
	t.Run("pages guess last", func(t *testing.T) {
		t.Setenv("SITE_URL", "")
		t.Setenv("GITHUB_REPOSITORY", "owner/repo")
		assert.Equal(t, "https://owner.github.io/repo/", ResolveBaseURL(""))
	})
	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv("SITE_URL", "")
		t.Setenv("GITHUB_REPOSITORY", "")
		assert.Equal(t, "", ResolveBaseURL(""))
	})
}

func TestCredentials(t *testing.T) {
	t.Setenv("KATAROGU_API_ID", `  "api-id-1" `)
	t.Setenv("KATAROGU_AFFILIATE_ID", `'aff-id-1'`)

	apiID, affID := Credentials()
	assert.Equal(t, "api-id-1", apiID)
	assert.Equal(t, "aff-id-1", affID)
}
