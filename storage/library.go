package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"AudioEditor/core/apperr"
	"AudioEditor/logger"
	"AudioEditor/model"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	UploadsMount = "/uploads/"
	OutputsMount = "/outputs/"
)

// Library is the durable store: uploaded originals and generated outputs, each in one
// flat directory served back under its mount. Nothing is ever evicted.
type Library struct {
	uploadDir string
	outputDir string
}

func NewLibrary(uploadDir, outputDir string) *Library {
	return &Library{uploadDir: uploadDir, outputDir: outputDir}
}

func (l *Library) UploadDir() string { return l.uploadDir }
func (l *Library) OutputDir() string { return l.outputDir }

// EnsureDirs creates the storage roots, including the scratch directory.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating directory %s", dir)
		}
		logger.Info("Directory ready", logger.String("path", dir))
	}
	return nil
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// SaveUpload stores r as <uuid><ext> in the upload directory.
func (l *Library) SaveUpload(filename string, r io.Reader) (model.UploadedAsset, error) {
	ext := ExtFromFilename(filename)
	id := uuid.New().String()
	name := id + ext
	path := filepath.Join(l.uploadDir, name)

	if err := os.MkdirAll(l.uploadDir, 0755); err != nil {
		return model.UploadedAsset{}, apperr.Storage(errors.Wrap(err, "creating upload dir"), "Failed to save file")
	}
	dst, err := os.Create(path)
	if err != nil {
		return model.UploadedAsset{}, apperr.Storage(errors.Wrapf(err, "creating %s", path), "Failed to save file")
	}
	size, err := io.Copy(dst, r)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			logger.Warn("Failed to remove partial upload", logger.String("path", path), logger.ErrorField(rmErr))
		}
		return model.UploadedAsset{}, apperr.Storage(errors.Wrapf(err, "writing %s", path), "Failed to save file")
	}

	return model.UploadedAsset{
		ID:         id,
		URL:        UploadsMount + name,
		Filename:   name,
		Size:       size,
		Original:   filename,
		UploadedAt: time.Now(),
		Path:       path,
	}, nil
}

// NewOutput allocates <kind>_<uuid>.<ext> in the output directory. The file itself is
// written by the engine.
func (l *Library) NewOutput(kind, ext string) model.Output {
	name := kind + "_" + uuid.New().String() + "." + strings.TrimPrefix(ext, ".")
	return model.Output{
		Path: filepath.Join(l.outputDir, name),
		URL:  OutputsMount + name,
	}
}

// VerifyOutput requires path to exist with a non-zero size.
func (l *Library) VerifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "output %s missing", path)
	}
	if info.IsDir() || info.Size() == 0 {
		return errors.Newf("output %s is empty", path)
	}
	return nil
}

// Resolve maps a public URL to a local path by substituting the mount prefix with its
// directory. Any other string is returned unchanged.
// TODO: reject resolved paths that escape the two storage roots.
func (l *Library) Resolve(url string) string {
	switch {
	case strings.HasPrefix(url, UploadsMount):
		return filepath.Join(l.uploadDir, strings.TrimPrefix(url, UploadsMount))
	case strings.HasPrefix(url, OutputsMount):
		return filepath.Join(l.outputDir, strings.TrimPrefix(url, OutputsMount))
	default:
		return url
	}
}
