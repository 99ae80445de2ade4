// Package sanitize detects and strips placeholder ("NOW PRINTING" / "NO
// IMAGE") sample images from stored records. Detection avoids bulk
// downloads: a HEAD content-length gate first, then a signature match over
// the first 8 KiB fetched with a Range request. Verdicts are cached in a
// small SQLite database so reruns stay fast.
package sanitize

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Cache persists placeholder verdicts keyed by URL and by the weaker
// ETag|Content-Length signature, which catches the same bytes served under
// different URLs.
type Cache struct {
	db     *sql.DB
	getURL *sql.Stmt
	putURL *sql.Stmt
	getSig *sql.Stmt
	putSig *sql.Stmt
}

// OpenCache opens (or creates) the verdict cache at dbPath.
func OpenCache(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", dbPath, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS url_verdicts (
		url TEXT PRIMARY KEY,
		placeholder INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sig_verdicts (
		sig TEXT PRIMARY KEY,
		placeholder INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	c := &Cache{db: db}
	if c.getURL, err = db.Prepare(`SELECT placeholder FROM url_verdicts WHERE url = ?`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if c.putURL, err = db.Prepare(`INSERT OR REPLACE INTO url_verdicts (url, placeholder) VALUES (?, ?)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if c.getSig, err = db.Prepare(`SELECT placeholder FROM sig_verdicts WHERE sig = ?`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if c.putSig, err = db.Prepare(`INSERT OR REPLACE INTO sig_verdicts (sig, placeholder) VALUES (?, ?)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// URL looks up a cached verdict for a URL.
func (c *Cache) URL(url string) (placeholder, ok bool) {
	var v int
	if err := c.getURL.QueryRow(url).Scan(&v); err != nil {
		return false, false
	}
	return v != 0, true
}

// SetURL records a verdict for a URL. Write failures are ignored: the cache
// is an accelerator, not a source of truth.
func (c *Cache) SetURL(url string, placeholder bool) {
	_, _ = c.putURL.Exec(url, boolInt(placeholder))
}

// Sig looks up a cached verdict for an ETag|Content-Length signature.
func (c *Cache) Sig(key string) (placeholder, ok bool) {
	var v int
	if err := c.getSig.QueryRow(key).Scan(&v); err != nil {
		return false, false
	}
	return v != 0, true
}

// SetSig records a verdict for a signature key.
func (c *Cache) SetSig(key string, placeholder bool) {
	_, _ = c.putSig.Exec(key, boolInt(placeholder))
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
