package api

import (
	"errors"
	"image"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fieldaudit/internal/ink"
)

const maxInkBytes = 20 << 20 // 20 MB

// SetInk handles PUT /api/form/ink/{field}. The body is either a raw
// PNG/JPEG image or JSON {"data_uri": "..."}.
func (h *Handler) SetInk(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var img image.Image
	switch ct {
	case "application/json":
		var req InkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		decoded, err := ink.DecodeDataURI(req.DataURI)
		if err != nil {
			writeInkError(w, malformed("ink data URI: %v", err), err)
			return
		}
		img = decoded
	case "image/png", "image/jpeg":
		r.Body = http.MaxBytesReader(w, r.Body, maxInkBytes)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("image too large or unreadable"))
			return
		}
		decoded, err := ink.Decode(data)
		if err != nil {
			writeInkError(w, malformed("ink image: %v", err), err)
			return
		}
		img = decoded
	default:
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody("content type must be image/png, image/jpeg or application/json"))
		return
	}

	if err := h.svc.SetInk(r.Context(), field, img); err != nil {
		writeError(w, "set ink", err)
		return
	}
	b := img.Bounds()
	writeJSON(w, http.StatusOK, map[string]any{
		"field":       field,
		"width":       b.Dx(),
		"height":      b.Dy(),
		"has_content": ink.HasContent(img),
	})
}

func writeInkError(w http.ResponseWriter, wrapped, cause error) {
	if errors.Is(cause, ink.ErrTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody(cause.Error()))
		return
	}
	writeError(w, "set ink", wrapped)
}

// ClearInk handles DELETE /api/form/ink/{field}.
func (h *Handler) ClearInk(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SetInk(r.Context(), chi.URLParam(r, "field"), nil); err != nil {
		writeError(w, "clear ink", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
