package api

// ChunkRef points at one persisted chunk file. Concatenating all referenced
// chunks in manifest order reconstitutes the full record sequence.
type ChunkRef struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Manifest is the store index: aggregate statistics, the ordered chunk list,
// and optional site-level metadata carried alongside the records.
type Manifest struct {
	Version   int    `json:"version"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Count     int    `json:"count"`
	ChunkSize int    `json:"chunk_size,omitempty"`

	WithSampleImages int `json:"with_sample_images"`
	WithSampleMovies int `json:"with_sample_movies"`

	Chunks []ChunkRef `json:"chunks"`

	SiteName    string `json:"site_name,omitempty"`
	SiteURL     string `json:"site_url,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	Description string `json:"description,omitempty"`
	OGImage     string `json:"og_image,omitempty"`
}
