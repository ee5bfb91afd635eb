package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"knouxart/internal/media"
	"knouxart/internal/storage"
)

const (
	maxMultipartMemory = 32 << 20
	// multipartOverhead allows for boundaries and part headers on top of the
	// upload limit.
	multipartOverhead = 64 << 10
)

func assetResponse(a *storage.MediaAsset) AssetResponse {
	resp := AssetResponse{
		Asset:     a,
		StreamURL: "/api/v1/media/" + a.ID + "/stream",
	}
	if a.Kind != media.KindAudio {
		resp.ThumbnailURL = "/api/v1/media/" + a.ID + "/thumbnail"
	}
	return resp
}

func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())

	if limit := h.media.MaxSize(); limit > 0 {
		if r.ContentLength > limit+multipartOverhead {
			writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", media.ErrTooLarge.Error())
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", media.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Missing file field")
		return
	}
	defer file.Close()

	asset, err := h.media.Import(u.ID, header.Filename, file)
	switch {
	case errors.Is(err, media.ErrUnsupported):
		writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", err.Error())
		return
	case errors.Is(err, media.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		return
	case err != nil:
		h.logger.Error().Err(err).Str("file", header.Filename).Msg("failed to import media")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to import media")
		return
	}

	if asset.Kind == media.KindVideo {
		go h.media.PrepareThumbnail(asset)
	}

	writeJSON(w, http.StatusCreated, assetResponse(asset))
}

func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())

	assets, err := h.media.List(u.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user", u.ID).Msg("failed to list media")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list media")
		return
	}

	resp := AssetListResponse{Assets: make([]AssetResponse, 0, len(assets))}
	for i := range assets {
		resp.Assets = append(resp.Assets, assetResponse(&assets[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ownedAsset loads an asset of the caller, answering 404 otherwise.
func (h *Handler) ownedAsset(w http.ResponseWriter, r *http.Request, id string) *storage.MediaAsset {
	u := UserFrom(r.Context())

	a, err := h.media.Get(id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("failed to get media")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get media")
		return nil
	}
	if a == nil || a.UserID != u.ID {
		writeError(w, http.StatusNotFound, "MEDIA_NOT_FOUND", "Media not found")
		return nil
	}
	return a
}

func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	a := h.ownedAsset(w, r, chi.URLParam(r, "id"))
	if a == nil {
		return
	}
	writeJSON(w, http.StatusOK, assetResponse(a))
}

func (h *Handler) StreamMedia(w http.ResponseWriter, r *http.Request) {
	a := h.ownedAsset(w, r, chi.URLParam(r, "id"))
	if a == nil {
		return
	}
	h.streamer.ServeAsset(w, r, a)
}

func (h *Handler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	a := h.ownedAsset(w, r, chi.URLParam(r, "id"))
	if a == nil {
		return
	}

	data, contentType, err := h.media.Thumbnail(a)
	if err != nil {
		h.logger.Warn().Err(err).Str("id", a.ID).Msg("failed to get thumbnail")
		writeError(w, http.StatusNotFound, "THUMBNAIL_NOT_FOUND", "Thumbnail not available")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	a := h.ownedAsset(w, r, chi.URLParam(r, "id"))
	if a == nil {
		return
	}

	if err := h.media.Delete(a); err != nil {
		h.logger.Error().Err(err).Str("id", a.ID).Msg("failed to delete media")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete media")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
