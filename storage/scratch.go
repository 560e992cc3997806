package storage

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"AudioEditor/core/apperr"
	"AudioEditor/logger"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// DefaultExt is used when an upload carries no filename.
const DefaultExt = ".wav"

// Scratch hands out request-scoped input files in the temp directory.
type Scratch struct {
	dir string
}

func NewScratch(dir string) *Scratch {
	return &Scratch{dir: dir}
}

func (s *Scratch) Dir() string {
	return s.dir
}

// ScratchFile is one request's copy of the uploaded bytes. Callers must
// `defer f.Release()` right after Acquire returns.
type ScratchFile struct {
	path    string
	release sync.Once
}

// ExtFromFilename returns the filename's extension, or DefaultExt when the filename is
// empty. A filename without an extension yields no extension.
func ExtFromFilename(filename string) string {
	if filename == "" {
		return DefaultExt
	}
	return filepath.Ext(filepath.Base(filename))
}

// Acquire reserves a unique scratch path named input_<uuid><ext>. Nothing is created on
// disk until Write.
func (s *Scratch) Acquire(ext string) (*ScratchFile, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, apperr.Storage(errors.Wrapf(err, "creating scratch dir %s", s.dir), "Failed to save file")
	}
	name := "input_" + uuid.New().String() + ext
	return &ScratchFile{path: filepath.Join(s.dir, name)}, nil
}

func (f *ScratchFile) Path() string {
	return f.path
}

// Write copies r into the scratch file and returns the number of bytes written.
func (f *ScratchFile) Write(r io.Reader) (int64, error) {
	dst, err := os.OpenFile(f.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, apperr.Storage(errors.Wrapf(err, "creating %s", f.path), "Failed to save file")
	}
	n, err := io.Copy(dst, r)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, apperr.Storage(errors.Wrapf(err, "writing %s", f.path), "Failed to save file")
	}
	return n, nil
}

// Release deletes the file if present. Errors are logged, never returned, and repeated
// calls do nothing.
func (f *ScratchFile) Release() {
	f.release.Do(func() {
		err := os.Remove(f.path)
		if err == nil {
			logger.Debug("Scratch file released", logger.String("path", f.path))
			return
		}
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		logger.Warn("Failed to cleanup temp file", logger.String("path", f.path), logger.ErrorField(err))
	})
}
