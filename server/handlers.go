package server

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"AudioEditor/cache"
	"AudioEditor/config"
	"AudioEditor/core/apperr"
	"AudioEditor/core/audio"
	"AudioEditor/logger"
	"AudioEditor/model"
	"AudioEditor/repository"
	"AudioEditor/storage"

	"github.com/gorilla/mux"
)

const (
	Version = "1.0.0"

	maxJSONBody = 1 << 20
)

// APIHandler serves every endpoint. It holds shared, read-only dependencies; all request
// state lives on the stack of the handler call.
type APIHandler struct {
	cfg        *config.Config
	editor     *audio.Editor
	library    *storage.Library
	scratch    *storage.Scratch
	assets     cache.AssetIndex
	operations repository.OperationRepository
}

func NewAPIHandler(
	cfg *config.Config,
	editor *audio.Editor,
	library *storage.Library,
	scratch *storage.Scratch,
	assets cache.AssetIndex,
	operations repository.OperationRepository,
) *APIHandler {
	return &APIHandler{
		cfg:        cfg,
		editor:     editor,
		library:    library,
		scratch:    scratch,
		assets:     assets,
		operations: operations,
	}
}

// RootHandler describes the service.
func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Audio Editor Pro API",
		"version":          Version,
		"status":           "running",
		"engine_available": h.editor.EngineAvailable(r.Context()),
		"endpoints": map[string]string{
			"health":     "/health",
			"upload":     "/upload",
			"cut":        "/cut",
			"fade":       "/fade",
			"separate":   "/separate/*",
			"export":     "/export/*",
			"assets":     "/assets/{id}",
			"operations": "/operations",
		},
	})
}

// HealthHandler reports liveness, the storage roots and the engine probe.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"engine_available": h.editor.EngineAvailable(r.Context()),
		"directories": map[string]bool{
			"uploads": storage.DirExists(h.cfg.UploadDir),
			"outputs": storage.DirExists(h.cfg.OutputDir),
			"temp":    storage.DirExists(h.cfg.TempDir),
		},
	})
}

// parseMultipart parses the body and returns the "file" part. The caller must call the
// returned cleanup, which drops any parts the parser spilled to disk.
func (h *APIHandler) parseMultipart(r *http.Request) (multipart.File, *multipart.FileHeader, func(), error) {
	if err := r.ParseMultipartForm(h.cfg.MaxUploadMemory); err != nil {
		return nil, nil, func() {}, apperr.Client("Failed to parse multipart form")
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("Failed to remove multipart temp files", logger.ErrorField(err))
		}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, cleanup, apperr.Client("Missing 'file' in form")
	}
	return file, header, cleanup, nil
}

func formFloat(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, apperr.Client("Missing form field '" + name + "'")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.Client("Invalid number for '" + name + "'")
	}
	return v, nil
}

// withScratch copies the upload into a scratch file, runs op on it and always removes
// the scratch file afterwards.
func (h *APIHandler) withScratch(
	file multipart.File,
	header *multipart.FileHeader,
	op func(input string) (model.TransformResult, error),
) (model.TransformResult, error) {
	scratch, err := h.scratch.Acquire(storage.ExtFromFilename(header.Filename))
	if err != nil {
		return model.TransformResult{}, err
	}
	defer scratch.Release()

	n, err := scratch.Write(file)
	if err != nil {
		return model.TransformResult{}, err
	}
	logger.Debug("Upload buffered to scratch",
		logger.String("path", scratch.Path()), logger.Int64("size", n))

	return op(scratch.Path())
}

// UploadHandler stores an audio file in the upload store.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	file, header, cleanup, err := h.parseMultipart(r)
	defer cleanup()
	if err != nil {
		writeError(w, r, err, "Failed to save file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	logger.Info("Uploading file",
		logger.String("filename", header.Filename), logger.String("content_type", contentType))
	if !strings.HasPrefix(contentType, "audio/") {
		writeError(w, r, apperr.Client("File must be an audio file"), "")
		return
	}

	asset, err := h.library.SaveUpload(header.Filename, file)
	if err != nil {
		writeError(w, r, err, "Failed to save file")
		return
	}
	if err := h.assets.Put(r.Context(), asset); err != nil {
		logger.Warn("Failed to index asset", logger.String("id", asset.ID), logger.ErrorField(err))
	}

	logger.Info("File saved", logger.String("filename", asset.Filename), logger.Int64("size", asset.Size))
	writeJSON(w, http.StatusOK, asset.Response())
}

// CutHandler trims the uploaded file to [start_time, end_time).
func (h *APIHandler) CutHandler(w http.ResponseWriter, r *http.Request) {
	file, header, cleanup, err := h.parseMultipart(r)
	defer cleanup()
	if err != nil {
		writeError(w, r, err, "Cut operation failed")
		return
	}
	defer file.Close()

	start, err := formFloat(r, "start_time")
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	end, err := formFloat(r, "end_time")
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := audio.ValidateCut(start, end); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.editor.EnsureEngine(r.Context()); err != nil {
		writeError(w, r, err, "")
		return
	}

	logger.Info("Cutting audio", logger.Float64("start", start), logger.Float64("end", end))
	result, err := h.withScratch(file, header, func(input string) (model.TransformResult, error) {
		return h.editor.Cut(r.Context(), input, start, end)
	})
	if err != nil {
		writeError(w, r, err, "Cut operation failed")
		return
	}
	writeJSON(w, http.StatusOK, model.URLResponse{URL: result.URL("output")})
}

// FadeHandler applies a fade in or fade out.
func (h *APIHandler) FadeHandler(w http.ResponseWriter, r *http.Request) {
	file, header, cleanup, err := h.parseMultipart(r)
	defer cleanup()
	if err != nil {
		writeError(w, r, err, "Fade operation failed")
		return
	}
	defer file.Close()

	duration, err := formFloat(r, "duration")
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	fade, err := audio.ValidateFade(r.FormValue("fade_type"), duration)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.editor.EnsureEngine(r.Context()); err != nil {
		writeError(w, r, err, "")
		return
	}

	logger.Info("Applying fade", logger.String("type", string(fade)), logger.Float64("duration", duration))
	result, err := h.withScratch(file, header, func(input string) (model.TransformResult, error) {
		return h.editor.Fade(r.Context(), input, fade, duration)
	})
	if err != nil {
		writeError(w, r, err, "Fade operation failed")
		return
	}
	writeJSON(w, http.StatusOK, model.URLResponse{URL: result.URL("output")})
}

// SeparateVocalMusicHandler splits the upload into a vocal and a music leg.
func (h *APIHandler) SeparateVocalMusicHandler(w http.ResponseWriter, r *http.Request) {
	file, header, cleanup, err := h.parseMultipart(r)
	defer cleanup()
	if err != nil {
		writeError(w, r, err, "Separation failed")
		return
	}
	defer file.Close()

	if err := h.editor.EnsureEngine(r.Context()); err != nil {
		writeError(w, r, err, "")
		return
	}

	logger.Info("Separating vocals and music", logger.String("filename", header.Filename))
	result, err := h.withScratch(file, header, func(input string) (model.TransformResult, error) {
		return h.editor.SplitVocalMusic(r.Context(), input)
	})
	if err != nil {
		writeError(w, r, err, "Separation failed")
		return
	}
	writeJSON(w, http.StatusOK, model.VocalMusicResponse{
		Vocal: result.URL("vocal"),
		Music: result.URL("music"),
	})
}

// SeparateInstrumentsHandler splits the upload into four frequency bands.
func (h *APIHandler) SeparateInstrumentsHandler(w http.ResponseWriter, r *http.Request) {
	file, header, cleanup, err := h.parseMultipart(r)
	defer cleanup()
	if err != nil {
		writeError(w, r, err, "Instrument separation failed")
		return
	}
	defer file.Close()

	if err := h.editor.EnsureEngine(r.Context()); err != nil {
		writeError(w, r, err, "")
		return
	}

	logger.Info("Separating instruments", logger.String("filename", header.Filename))
	result, err := h.withScratch(file, header, func(input string) (model.TransformResult, error) {
		return h.editor.SplitInstruments(r.Context(), input)
	})
	if err != nil {
		writeError(w, r, err, "Instrument separation failed")
		return
	}
	writeJSON(w, http.StatusOK, model.InstrumentsResponse{
		Vocals: result.URL("vocals"),
		Drums:  result.URL("drums"),
		Bass:   result.URL("bass"),
		Other:  result.URL("other"),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return apperr.Client("Invalid JSON body")
	}
	return nil
}

func validateExport(format string, tracks ...model.Track) error {
	if err := audio.ValidateExportFormat(format); err != nil {
		return err
	}
	for _, t := range tracks {
		if err := audio.ValidateVolume(t.Volume); err != nil {
			return err
		}
	}
	return nil
}

// ExportMixHandler exports the first active track of the mix.
func (h *APIHandler) ExportMixHandler(w http.ResponseWriter, r *http.Request) {
	var req model.ExportMixRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	req.ApplyDefaults()

	logger.Info("Exporting mix", logger.Int("tracks", len(req.Tracks)),
		logger.String("format", req.Format), logger.String("quality", req.Quality))

	track, err := audio.SelectExportTrack(req.Tracks)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := validateExport(req.Format, track); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.editor.EnsureEngine(r.Context()); err != nil {
		writeError(w, r, err, "")
		return
	}

	result, err := h.editor.ExportMix(r.Context(), req.Tracks, req.Format, req.Quality)
	if err != nil {
		writeError(w, r, err, "Export failed")
		return
	}
	writeJSON(w, http.StatusOK, model.URLResponse{URL: result.URL("output")})
}

// ExportTrackHandler exports one track with its volume applied.
func (h *APIHandler) ExportTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req model.ExportTrackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if req.Track == nil {
		writeError(w, r, apperr.Client("Missing 'track' in body"), "")
		return
	}
	req.ApplyDefaults()

	logger.Info("Exporting single track", logger.String("track", req.Track.ID),
		logger.String("format", req.Format), logger.String("quality", req.Quality))

	if err := validateExport(req.Format, *req.Track); err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := h.editor.EnsureEngine(r.Context()); err != nil {
		writeError(w, r, err, "")
		return
	}

	result, err := h.editor.ExportTrack(r.Context(), *req.Track, req.Format, req.Quality)
	if err != nil {
		writeError(w, r, err, "Track export failed")
		return
	}
	writeJSON(w, http.StatusOK, model.URLResponse{URL: result.URL("output")})
}

// GetAssetHandler looks up an uploaded asset by id.
func (h *APIHandler) GetAssetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	asset, ok, err := h.assets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Storage(err, "Failed to load asset"), "")
		return
	}
	if !ok {
		writeError(w, r, apperr.NotFound("Asset not found"), "")
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// ListOperationsHandler returns the newest recorded operations.
func (h *APIHandler) ListOperationsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, r, apperr.Client("Invalid 'limit'"), "")
			return
		}
		limit = v
	}

	ops, err := h.operations.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, apperr.Storage(err, "Failed to load operations"), "")
		return
	}
	if ops == nil {
		ops = []*model.Operation{}
	}
	writeJSON(w, http.StatusOK, ops)
}
