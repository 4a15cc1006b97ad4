package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-book-collection/internal/logger"
	"github.com/sbilibin2017/gw-book-collection/internal/storage"
)

//go:generate mockgen -source=upload.go -destination=upload_mock.go -package=handlers

// FileOpener opens stored uploads.
type FileOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// NewUploadHandler serves stored cover images under /uploads/{filename}.
// @Summary Cover image
// @Tags uploads
// @Produce image/jpeg
// @Produce image/png
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} handlers.ErrorResponse "Not found"
// @Router /uploads/{filename} [get]
func NewUploadHandler(files FileOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")

		rc, err := files.Open(r.Context(), name)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
				writeError(w, http.StatusNotFound, "File not found")
				return
			}
			logger.Log.Errorw("failed to open upload", "file", name, "err", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		defer rc.Close()

		if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(w, r, name, time.Time{}, rs)
			return
		}

		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, rc); err != nil {
			logger.Log.Warnw("failed to stream upload", "file", name, "err", err)
		}
	}
}
