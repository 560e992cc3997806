package model

// Track is a client-declared mixer channel. The server never stores it; it only resolves
// URL back to a local file for the export operations.
type Track struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
	Solo   bool    `json:"solo"`
}

const (
	DefaultExportFormat  = "mp3"
	DefaultExportQuality = "high"
)

// ExportMixRequest is the body of POST /export/mix.
type ExportMixRequest struct {
	Tracks  []Track `json:"tracks"`
	Format  string  `json:"format"`
	Quality string  `json:"quality"`
}

// ExportTrackRequest is the body of POST /export/track.
type ExportTrackRequest struct {
	Track   *Track `json:"track"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

// ApplyDefaults fills in mp3 at high quality when the client omits them.
func (r *ExportMixRequest) ApplyDefaults() {
	r.Format, r.Quality = exportDefaults(r.Format, r.Quality)
}

func (r *ExportTrackRequest) ApplyDefaults() {
	r.Format, r.Quality = exportDefaults(r.Format, r.Quality)
}

func exportDefaults(format, quality string) (string, string) {
	if format == "" {
		format = DefaultExportFormat
	}
	if quality == "" {
		quality = DefaultExportQuality
	}
	return format, quality
}
