package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/inkdesk/storefront/internal/media"
)

const maxUploadBytes = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type UploadHandler struct {
	uploader media.Uploader
	resp     *Responder
	timeout  time.Duration
}

func NewUploadHandler(uploader media.Uploader, resp *Responder, timeout time.Duration) *UploadHandler {
	return &UploadHandler{uploader: uploader, resp: resp, timeout: timeout}
}

// POST /api/v1/admin/uploads (multipart field "file")
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<10)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.resp.Error(w, r, badRequest("file exceeds 5MB"))
			return
		}
		h.resp.Error(w, r, badRequest("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		h.resp.Error(w, r, badRequest("file exceeds 5MB"))
		return
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		h.resp.Error(w, r, badRequest("could not read file"))
		return
	}
	sniff = sniff[:n]
	if !allowedImageTypes[http.DetectContentType(sniff)] {
		h.resp.Error(w, r, badRequest("only JPEG, PNG, WebP and GIF images are accepted"))
		return
	}

	asset, err := h.uploader.Upload(ctx, filepath.Base(header.Filename), io.MultiReader(bytes.NewReader(sniff), file))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"image": asset})
}
