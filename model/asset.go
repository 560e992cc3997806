package model

import "time"

// UploadedAsset is an original file kept in the upload store. Assets are immutable and
// never deleted.
type UploadedAsset struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Original   string    `json:"original_filename,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	Path       string    `json:"-"`
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

func (a UploadedAsset) Response() UploadResponse {
	return UploadResponse{ID: a.ID, URL: a.URL, Filename: a.Filename, Size: a.Size}
}

// Output is one generated file in the output store.
type Output struct {
	Path string `json:"-"`
	URL  string `json:"url"`
}

// TransformResult holds the named outputs of one operation, e.g. "vocal" and "music".
type TransformResult struct {
	Operation string
	Outputs   map[string]Output
}

func (r TransformResult) URL(name string) string {
	return r.Outputs[name].URL
}

// Paths lists output paths in no particular order.
func (r TransformResult) Paths() []string {
	paths := make([]string, 0, len(r.Outputs))
	for _, out := range r.Outputs {
		paths = append(paths, out.Path)
	}
	return paths
}

type URLResponse struct {
	URL string `json:"url"`
}

type VocalMusicResponse struct {
	Vocal string `json:"vocal"`
	Music string `json:"music"`
}

type InstrumentsResponse struct {
	Vocals string `json:"vocals"`
	Drums  string `json:"drums"`
	Bass   string `json:"bass"`
	Other  string `json:"other"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}
