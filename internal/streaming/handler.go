package streaming

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"knouxart/internal/media"
	"knouxart/internal/storage"
)

// Handler serves imported asset files with range support so the editor
// preview can seek inside long clips.
type Handler struct {
	logger zerolog.Logger
}

func NewHandler(logger zerolog.Logger) *Handler {
	return &Handler{logger: logger.With().Str("component", "streaming").Logger()}
}

func (h *Handler) ServeAsset(w http.ResponseWriter, r *http.Request, asset *storage.MediaAsset) {
	file, err := os.Open(asset.Path)
	if err != nil {
		h.logger.Warn().Err(err).Str("id", asset.ID).Msg("asset file missing")
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		http.Error(w, "Cannot read file", http.StatusInternalServerError)
		return
	}

	contentType := asset.ContentType
	if contentType == "" {
		contentType = media.GetContentType(asset.Path)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "private, max-age=3600")

	http.ServeContent(w, r, asset.Name, stat.ModTime(), file)
}
