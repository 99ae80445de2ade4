package sanitize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// hints are URL substrings that mark a placeholder without any probing.
var hints = []string{
	"noimage", "no_img", "no-img", "no-photo", "nophoto", "now_print", "nowprint",
	"nowprinting", "now_printing", "comingsoon", "coming_soon", "placeholder",
}

// Signatures identifies known placeholder images by exact byte size and by
// the sha256 of their first 8 KiB.
type Signatures struct {
	ContentLengths map[int]bool
	Prefix8SHA256  map[string]bool
}

// signatureFile is the optional on-disk extension of the built-in set.
type signatureFile struct {
	ContentLengths []int    `json:"content_lengths"`
	Prefix8SHA256  []string `json:"prefix8_sha256"`
}

// LoadSignatures reads the optional signature file and merges it with the
// built-in fallback signature. A missing or unreadable file is not an error.
func LoadSignatures(fs billy.Filesystem, path string) Signatures {
	sig := Signatures{
		ContentLengths: map[int]bool{19378: true},
		Prefix8SHA256: map[string]bool{
			"60b0c00c1f599fe3eb1d21c5f5ac1117117aca68ae65ca838ec35a4806601839": true,
		},
	}
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return sig
	}
	var sf signatureFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return sig
	}
	for _, n := range sf.ContentLengths {
		sig.ContentLengths[n] = true
	}
	for _, h := range sf.Prefix8SHA256 {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			sig.Prefix8SHA256[h] = true
		}
	}
	return sig
}

// Detector probes sample-image URLs for known placeholder content.
// Network failures degrade to "not a placeholder": availability of records
// beats completeness of cleaning.
type Detector struct {
	HTTP  *http.Client
	Sig   Signatures
	Cache *Cache
}

// NewDetector builds a Detector over the given cache.
func NewDetector(sig Signatures, cache *Cache) *Detector {
	return &Detector{
		HTTP:  &http.Client{Timeout: 20 * time.Second},
		Sig:   sig,
		Cache: cache,
	}
}

// HasHint reports whether the URL itself names a placeholder.
func HasHint(url string) bool {
	low := strings.ToLower(url)
	for _, h := range hints {
		if strings.Contains(low, h) {
			return true
		}
	}
	return false
}

// IsPlaceholder decides whether the URL serves a known placeholder image.
// Order: URL hints, cache, HEAD content-length gate, Range probe of the
// first 8 KiB against the signature set.
func (d *Detector) IsPlaceholder(ctx context.Context, url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return true
	}
	if HasHint(url) {
		return true
	}
	if v, ok := d.Cache.URL(url); ok {
		return v
	}

	resp, err := d.head(ctx, url)
	if err != nil {
		d.Cache.SetURL(url, false)
		return false
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	clen, clenErr := strconv.Atoi(resp.Header.Get("Content-Length"))

	sigKey := ""
	if etag != "" && clenErr == nil {
		sigKey = fmt.Sprintf("%s|%d", etag, clen)
		if v, ok := d.Cache.Sig(sigKey); ok {
			d.Cache.SetURL(url, v)
			return v
		}
	}

	if clenErr != nil || !d.Sig.ContentLengths[clen] {
		d.verdict(url, sigKey, false)
		return false
	}

	prefix, err := d.rangeFirst8(ctx, url)
	if err != nil || len(prefix) == 0 {
		d.verdict(url, sigKey, false)
		return false
	}

	sum := sha256.Sum256(prefix)
	isPH := d.Sig.Prefix8SHA256[hex.EncodeToString(sum[:])]
	d.verdict(url, sigKey, isPH)
	return isPH
}

func (d *Detector) verdict(url, sigKey string, v bool) {
	d.Cache.SetURL(url, v)
	if sigKey != "" {
		d.Cache.SetSig(sigKey, v)
	}
}

func (d *Detector) head(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := d.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("head %s: %s", url, resp.Status)
	}
	return resp, nil
}

func (d *Detector) rangeFirst8(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", "bytes=0-8191")
	resp, err := d.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("range get %s: %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8192))
}
