// Package export writes finished recordings to disk.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"github.com/soocke/invisicam-go/domain/errs"
	"github.com/soocke/invisicam-go/domain/recording"
)

const (
	// FilePrefix starts every exported file name.
	FilePrefix = "invisibility_video_"
	// DefaultPattern is the strftime layout of the timestamp part.
	DefaultPattern = "%Y%m%d-%H%M%S"
)

var extensions = map[string]string{
	"video/x-motion-jpeg": "mjpeg",
	"video/webm":          "webm",
	"video/mp4":           "mp4",
}

// Extension returns the file extension for mediaType ("bin" if unknown).
func Extension(mediaType string) string {
	if ext, ok := extensions[mediaType]; ok {
		return ext
	}
	return "bin"
}

// Filename builds invisibility_video_<timestamp>.<ext>.
func Filename(pattern string, t time.Time, mediaType string) string {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return FilePrefix + strftime.Format(pattern, t) + "." + Extension(mediaType)
}

// Writer stores exported blobs in a directory.
type Writer struct {
	Dir     string
	Pattern string
	Logger  *slog.Logger
}

// NewWriter returns a Writer for dir.
func NewWriter(dir, pattern string, logger *slog.Logger) *Writer {
	return &Writer{Dir: dir, Pattern: pattern, Logger: logger}
}

// Write stores blob and returns the path written. The file is written under
// a temporary name and renamed so a partial export never carries the final
// name. An existing file with the same name gets a numeric suffix.
func (w *Writer) Write(blob recording.Blob) (string, error) {
	if len(blob.Data) == 0 {
		return "", errs.ErrNothingToExport
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}
	created := blob.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	path, err := w.freePath(Filename(w.Pattern, created, blob.MediaType))
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(w.Dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("export: temp file: %w", err)
	}
	if _, err := tmp.Write(blob.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("export: rename: %w", err)
	}
	if w.Logger != nil {
		w.Logger.Info("export.written",
			"path", path,
			"session", blob.SessionID,
			"size", humanize.Bytes(uint64(len(blob.Data))),
			"segments", blob.Segments,
			"duration", blob.Duration,
		)
	}
	return path, nil
}

func (w *Writer) freePath(name string) (string, error) {
	path := filepath.Join(w.Dir, name)
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	for i := 1; i < 1000; i++ {
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("export: stat: %w", err)
		}
		path = filepath.Join(w.Dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}
	return "", fmt.Errorf("export: no free file name for %s", name)
}
