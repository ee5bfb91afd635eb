package api

import (
	"errors"
	"fmt"
	"net/http"

	"knouxart/internal/media"
	"knouxart/internal/photo"
)

func (h *Handler) photoOp(w http.ResponseWriter, r *http.Request, fn func(e *photo.Editor) error) {
	s := h.liveSession(w, r)
	if s == nil {
		return
	}

	var st photo.State
	err := s.Photo(func(e *photo.Editor) error {
		if err := fn(e); err != nil {
			return err
		}
		st = e.State()
		return nil
	})
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func decodePhotoOp[T any](h *Handler, w http.ResponseWriter, r *http.Request, fn func(req T, e *photo.Editor) error) {
	var req T
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}
	h.photoOp(w, r, func(e *photo.Editor) error { return fn(req, e) })
}

func (h *Handler) ApplyAdjustments(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req map[string]float64, e *photo.Editor) error {
		return e.ApplyAdjustments(req)
	})
}

func (h *Handler) ApplyFilter(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req FilterRequest, e *photo.Editor) error {
		return e.ApplyFilter(req.Filter)
	})
}

func (h *Handler) SetTool(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req ToolRequest, e *photo.Editor) error {
		return e.SetTool(req.Tool)
	})
}

func (h *Handler) SetBrush(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req BrushRequest, e *photo.Editor) error {
		if req.Size != nil {
			e.SetBrushSize(*req.Size)
		}
		if req.Color != nil {
			e.SetBrushColor(*req.Color)
		}
		if req.Opacity != nil {
			e.SetBrushOpacity(*req.Opacity)
		}
		return nil
	})
}

func (h *Handler) SetPhotoZoom(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req PhotoZoomRequest, e *photo.Editor) error {
		switch req.Action {
		case "in":
			e.ZoomIn(req.Step)
		case "out":
			e.ZoomOut(req.Step)
		case "fit":
			e.FitToScreen()
		case "":
			if req.Zoom == nil {
				return errors.New("zoom or action is required")
			}
			e.SetZoom(*req.Zoom)
		default:
			return fmt.Errorf("unknown zoom action %q", req.Action)
		}
		return nil
	})
}

func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req ResizeRequest, e *photo.Editor) error {
		return e.Resize(req.Width, req.Height)
	})
}

// AddLayer adds a text or shape layer, or replaces the canvas with an
// imported image.
func (h *Handler) AddLayer(w http.ResponseWriter, r *http.Request) {
	var req AddLayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	var src string
	var width, height float64
	if req.Type == photo.LayerImage {
		a := h.ownedAsset(w, r, req.AssetID)
		if a == nil {
			return
		}
		if a.Kind != media.KindImage {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Asset is not an image")
			return
		}
		src, width, height = "/api/v1/media/"+a.ID+"/stream", float64(a.Width), float64(a.Height)
	}

	h.photoOp(w, r, func(e *photo.Editor) error {
		switch req.Type {
		case photo.LayerImage:
			e.AddImage(src, width, height)
		case photo.LayerText:
			if req.Text == nil || req.Text.Text == "" {
				return errors.New("text is required")
			}
			e.AddText(*req.Text)
		case photo.LayerShape:
			if req.Shape == nil {
				return errors.New("shape is required")
			}
			if _, err := e.AddShape(*req.Shape); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown layer type %q", req.Type)
		}
		return nil
	})
}

func (h *Handler) SelectLayer(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req LayerSelectRequest, e *photo.Editor) error {
		return e.SelectLayer(req.LayerID)
	})
}

func (h *Handler) Rotate(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req RotateRequest, e *photo.Editor) error {
		return e.Rotate(req.Angle)
	})
}

func (h *Handler) Flip(w http.ResponseWriter, r *http.Request) {
	decodePhotoOp(h, w, r, func(req FlipRequest, e *photo.Editor) error {
		switch req.Axis {
		case "horizontal", "":
			return e.FlipHorizontal()
		case "vertical":
			return e.FlipVertical()
		}
		return fmt.Errorf("unknown flip axis %q", req.Axis)
	})
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.historyOp(w, r, (*photo.Editor).Undo)
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.historyOp(w, r, (*photo.Editor).Redo)
}

func (h *Handler) historyOp(w http.ResponseWriter, r *http.Request, step func(e *photo.Editor) (bool, error)) {
	s := h.liveSession(w, r)
	if s == nil {
		return
	}

	var resp HistoryResponse
	err := s.Photo(func(e *photo.Editor) error {
		applied, err := step(e)
		if err != nil {
			return err
		}
		resp = HistoryResponse{Applied: applied, State: e.State()}
		return nil
	})
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
