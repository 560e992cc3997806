package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AudioEditor/cache"
	"AudioEditor/config"
	"AudioEditor/core/audio"
	"AudioEditor/db"
	"AudioEditor/logger"
	"AudioEditor/model"
	"AudioEditor/repository"
	"AudioEditor/storage"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
)

// NewRouter wires every route. CORS and request logging wrap the whole router so they
// also see preflights and unmatched routes.
func NewRouter(cfg *config.Config, h *APIHandler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", h.RootHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	router.HandleFunc("/upload", h.UploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/cut", h.CutHandler).Methods(http.MethodPost)
	router.HandleFunc("/fade", h.FadeHandler).Methods(http.MethodPost)
	router.HandleFunc("/separate/vocal-music", h.SeparateVocalMusicHandler).Methods(http.MethodPost)
	router.HandleFunc("/separate/instruments", h.SeparateInstrumentsHandler).Methods(http.MethodPost)
	router.HandleFunc("/export/mix", h.ExportMixHandler).Methods(http.MethodPost)
	router.HandleFunc("/export/track", h.ExportTrackHandler).Methods(http.MethodPost)

	router.HandleFunc("/assets/{id}", h.GetAssetHandler).Methods(http.MethodGet)
	router.HandleFunc("/operations", h.ListOperationsHandler).Methods(http.MethodGet)

	// Static file serving
	uploadsFileServer := http.FileServer(http.Dir(cfg.UploadDir))
	router.PathPrefix(storage.UploadsMount).
		Handler(http.StripPrefix(storage.UploadsMount, uploadsFileServer)).
		Methods(http.MethodGet, http.MethodHead)
	outputsFileServer := http.FileServer(http.Dir(cfg.OutputDir))
	router.PathPrefix(storage.OutputsMount).
		Handler(http.StripPrefix(storage.OutputsMount, outputsFileServer)).
		Methods(http.MethodGet, http.MethodHead)

	return loggingMiddleware(corsMiddleware(cfg.CORSOrigins)(router))
}

// closer releases an optional backend on shutdown.
type closer struct {
	name  string
	close func() error
}

// Build constructs the handler and its optional backends from cfg. Backends that are
// enabled but unreachable are reported as errors.
func Build(ctx context.Context, cfg *config.Config, engine audio.Engine) (*APIHandler, []closer, error) {
	var closers []closer

	if err := storage.EnsureDirs(cfg.UploadDir, cfg.OutputDir, cfg.TempDir); err != nil {
		return nil, nil, err
	}
	library := storage.NewLibrary(cfg.UploadDir, cfg.OutputDir)
	scratch := storage.NewScratch(cfg.TempDir)

	var assets cache.AssetIndex = cache.NewMemoryAssetIndex()
	if cfg.RedisEnabled {
		client, err := cache.ConnectRedis(ctx, cfg)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, closer{name: "redis", close: client.Close})
		assets = cache.NewRedisAssetIndex(client)
		logger.Info("Asset index backed by Redis",
			logger.String("addr", cfg.RedisHost+":"+cfg.RedisPort))
	}

	var mirror audio.Mirror = storage.NoopMirror{}
	if cfg.MinioEnabled {
		minioMirror, err := storage.NewMinioMirror(ctx, cfg)
		if err != nil {
			return nil, closers, err
		}
		mirror = minioMirror
	}

	operations := repository.NewMemoryOperationRepository()
	if cfg.DBEnabled {
		gormDB, err := db.ConnectGormDB(cfg)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, closer{name: "database", close: func() error { return db.CloseGormDB(gormDB) }})
		if err := db.AutoMigrateModels(gormDB, &model.Operation{}); err != nil {
			return nil, closers, err
		}
		operations = repository.NewGormOperationRepository(gormDB)
	}

	editor := audio.NewEditor(engine, library,
		audio.WithMirror(mirror),
		audio.WithRecorder(operations),
		audio.WithTimeouts(audio.Timeouts{
			Edit:     cfg.EditTimeout,
			Separate: cfg.SeparateTimeout,
			Export:   cfg.ExportTimeout,
		}),
	)

	return NewAPIHandler(cfg, editor, library, scratch, assets, operations), closers, nil
}

func closeAll(closers []closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].close(); err != nil {
			logger.Warn("Failed to close backend",
				logger.String("backend", closers[i].name), logger.ErrorField(err))
		}
	}
}

// Start runs the HTTP server until SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := audio.NewFFmpegEngine(cfg.FFmpegPath, cfg.ProbeTimeout)
	if engine.Available(ctx) {
		logger.Info("FFmpeg is available", logger.String("bin", cfg.FFmpegPath))
	} else {
		logger.Warn("FFmpeg not found, audio processing will not work until it is installed",
			logger.String("bin", cfg.FFmpegPath))
	}

	handler, closers, err := Build(ctx, cfg, engine)
	defer closeAll(closers)
	if err != nil {
		return errors.Wrap(err, "initializing server")
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      NewRouter(cfg, handler),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	logger.Info("Server stopped")
	return nil
}
