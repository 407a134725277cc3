// Package logutil configures the standard logger.
package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
)

const (
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup sets the standard log flags and, when path is not empty, sends
// output to a file rotated at 10 MB with up to three archives
// (path.1 .. path.3). Otherwise output stays on stderr. The returned closer
// releases the file.
func Setup(path string) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if path == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	w, err := NewRotatingWriter(path)
	if err != nil {
		return nil, err
	}
	log.SetOutput(w)
	return w, nil
}

// RotatingWriter appends to a file and rotates it once it would exceed
// MaxSize bytes.
type RotatingWriter struct {
	Path     string
	MaxSize  int64
	Archives int

	f *os.File
}

// NewRotatingWriter opens path for appending, rotating first if it is
// already too large.
func NewRotatingWriter(path string) (*RotatingWriter, error) {
	w := &RotatingWriter{Path: path, MaxSize: maxSizeBytes, Archives: maxArchives}
	w.rotateIfNeeded(0)
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	w.f = f
	return nil
}

// Write is called by log.Logger under its own lock.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > w.MaxSize {
		_ = w.f.Close()
		w.rotateIfNeeded(int64(len(p)))
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	return w.f.Write(p)
}

// Close closes the current file.
func (w *RotatingWriter) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) rotateIfNeeded(incoming int64) {
	st, err := os.Stat(w.Path)
	if err != nil || st.Size()+incoming <= w.MaxSize {
		return
	}
	_ = os.Remove(w.archiveName(w.Archives))
	for i := w.Archives - 1; i >= 1; i-- {
		_ = os.Rename(w.archiveName(i), w.archiveName(i+1))
	}
	_ = os.Rename(w.Path, w.archiveName(1))
}

func (w *RotatingWriter) archiveName(n int) string { return fmt.Sprintf("%s.%d", w.Path, n) }
