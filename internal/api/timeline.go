package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"knouxart/internal/media"
	"knouxart/internal/timeline"
)

// timelineOp runs fn against the session engine and answers with the
// resulting state. Errors returned by fn are input errors.
func (h *Handler) timelineOp(w http.ResponseWriter, r *http.Request, fn func(e *timeline.Engine) error) {
	s := h.liveSession(w, r)
	if s == nil {
		return
	}

	var st timeline.State
	err := s.Timeline(func(e *timeline.Engine) error {
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

// decodeOp decodes the request body before running a timeline operation.
func decodeOp[T any](h *Handler, w http.ResponseWriter, r *http.Request, fn func(req T, e *timeline.Engine) error) {
	var req T
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}
	h.timelineOp(w, r, func(e *timeline.Engine) error { return fn(req, e) })
}

var clipKinds = map[string]timeline.ClipKind{
	media.KindVideo: timeline.ClipVideo,
	media.KindAudio: timeline.ClipAudio,
	media.KindImage: timeline.ClipImage,
}

// AddClip places an imported asset, or an explicit clip, on the timeline.
func (h *Handler) AddClip(w http.ResponseWriter, r *http.Request) {
	var req AddClipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}
	if req.AssetID == "" && req.Clip == nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "assetId or clip is required")
		return
	}

	var src, name, kind string
	var duration float64
	if req.AssetID != "" {
		a := h.ownedAsset(w, r, req.AssetID)
		if a == nil {
			return
		}
		src, name, kind, duration = "/api/v1/media/"+a.ID+"/stream", a.Name, a.Kind, a.Duration
	}

	s := h.liveSession(w, r)
	if s == nil {
		return
	}

	var resp ClipResponse
	err := s.Timeline(func(e *timeline.Engine) error {
		var clip timeline.Clip
		if req.AssetID != "" {
			var err error
			if clip, err = e.NewMediaClip(clipKinds[kind], name, src, duration); err != nil {
				return err
			}
		} else {
			clip = *req.Clip
			if clip.ID == "" {
				clip.ID = "clip-" + uuid.NewString()
			}
			if clip.TrimmedDuration == 0 {
				clip.TrimmedDuration = clip.Duration
			}
		}
		if req.StartTime != nil {
			clip.StartTime = *req.StartTime
		}
		if req.Track != nil {
			clip.Track = *req.Track
		}
		if err := timeline.ValidateClip(clip); err != nil {
			return err
		}

		e.AddClip(clip)
		resp = ClipResponse{Clip: clip, State: e.State()}
		return nil
	})
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) AddText(w http.ResponseWriter, r *http.Request) {
	var req AddTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "text is required")
		return
	}

	s := h.liveSession(w, r)
	if s == nil {
		return
	}

	var resp ClipResponse
	err := s.Timeline(func(e *timeline.Engine) error {
		if math.IsInf(e.State().CurrentTime+req.Duration, 0) {
			return timeline.ErrNotFinite
		}
		clip := e.AddText(req.Text, req.Duration)
		resp = ClipResponse{Clip: clip, State: e.State()}
		return nil
	})
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) TrimClip(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipId")
	decodeOp(h, w, r, func(req TrimRequest, e *timeline.Engine) error {
		if err := timeline.ValidateTrim(req.Start, req.End); err != nil {
			return err
		}
		e.TrimClip(clipID, req.Start, req.End)
		return nil
	})
}

// SplitClip only validates against clips that exist; unknown ids stay a
// silent no-op like every other clip operation.
func (h *Handler) SplitClip(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipId")
	decodeOp(h, w, r, func(req SplitRequest, e *timeline.Engine) error {
		if c, ok := e.State().FindClip(clipID); ok {
			if err := timeline.ValidateSplit(c, req.Time); err != nil {
				return err
			}
		}
		e.SplitClip(clipID, req.Time)
		return nil
	})
}

func (h *Handler) SetClipSpeed(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipId")
	decodeOp(h, w, r, func(req SpeedRequest, e *timeline.Engine) error {
		if err := timeline.ValidateSpeed(req.Speed); err != nil {
			return err
		}
		if c, ok := e.State().FindClip(clipID); ok {
			if err := timeline.ValidateClipSpeed(c, req.Speed); err != nil {
				return err
			}
		}
		e.SetClipSpeed(clipID, req.Speed)
		return nil
	})
}

func (h *Handler) MoveClip(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipId")
	decodeOp(h, w, r, func(req MoveRequest, e *timeline.Engine) error {
		if err := timeline.ValidateTrim(req.StartTime, req.StartTime); err != nil {
			return err
		}
		if c, ok := e.State().FindClip(clipID); ok {
			if err := timeline.ValidateMove(c, req.StartTime); err != nil {
				return err
			}
		}
		e.MoveClip(clipID, req.StartTime, req.Track)
		return nil
	})
}

func (h *Handler) AddEffect(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipId")
	decodeOp(h, w, r, func(req timeline.Effect, e *timeline.Engine) error {
		if err := timeline.ValidateEffect(req); err != nil {
			return err
		}
		e.AddEffect(clipID, req)
		return nil
	})
}

func (h *Handler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipId")
	h.timelineOp(w, r, func(e *timeline.Engine) error {
		e.DeleteClip(clipID)
		return nil
	})
}

func (h *Handler) SelectClip(w http.ResponseWriter, r *http.Request) {
	decodeOp(h, w, r, func(req SelectRequest, e *timeline.Engine) error {
		e.SelectClip(req.ClipID)
		return nil
	})
}

func (h *Handler) SetTimelineZoom(w http.ResponseWriter, r *http.Request) {
	decodeOp(h, w, r, func(req ValueRequest, e *timeline.Engine) error {
		if err := finite(req.Value); err != nil {
			return err
		}
		e.SetZoom(req.Value)
		return nil
	})
}

func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	decodeOp(h, w, r, func(req SeekRequest, e *timeline.Engine) error {
		if err := finite(req.Time); err != nil {
			return err
		}
		e.Seek(req.Time)
		return nil
	})
}

func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	h.timelineOp(w, r, func(e *timeline.Engine) error {
		e.Play()
		return nil
	})
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.timelineOp(w, r, func(e *timeline.Engine) error {
		e.Pause()
		return nil
	})
}

func (h *Handler) TogglePlay(w http.ResponseWriter, r *http.Request) {
	h.timelineOp(w, r, func(e *timeline.Engine) error {
		e.TogglePlay()
		return nil
	})
}

func (h *Handler) SetVolume(w http.ResponseWriter, r *http.Request) {
	decodeOp(h, w, r, func(req ValueRequest, e *timeline.Engine) error {
		if err := finite(req.Value); err != nil {
			return err
		}
		e.SetVolume(req.Value)
		return nil
	})
}

func (h *Handler) ToggleMute(w http.ResponseWriter, r *http.Request) {
	h.timelineOp(w, r, func(e *timeline.Engine) error {
		e.ToggleMute()
		return nil
	})
}

func (h *Handler) SetPlaybackRate(w http.ResponseWriter, r *http.Request) {
	decodeOp(h, w, r, func(req ValueRequest, e *timeline.Engine) error {
		if err := timeline.ValidateSpeed(req.Value); err != nil {
			return err
		}
		e.SetPlaybackRate(req.Value)
		return nil
	})
}

func (h *Handler) trackIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid track index")
		return 0, false
	}
	return index, true
}

func (h *Handler) ToggleTrackMute(w http.ResponseWriter, r *http.Request) {
	index, ok := h.trackIndex(w, r)
	if !ok {
		return
	}
	h.timelineOp(w, r, func(e *timeline.Engine) error {
		e.ToggleTrackMute(index)
		return nil
	})
}

func (h *Handler) ToggleTrackLock(w http.ResponseWriter, r *http.Request) {
	index, ok := h.trackIndex(w, r)
	if !ok {
		return
	}
	h.timelineOp(w, r, func(e *timeline.Engine) error {
		e.ToggleTrackLock(index)
		return nil
	})
}

func (h *Handler) ExportPresets(w http.ResponseWriter, r *http.Request) {
	s := h.liveSession(w, r)
	if s == nil {
		return
	}

	var duration float64
	if err := s.Timeline(func(e *timeline.Engine) error {
		duration = e.State().Duration
		return nil
	}); err != nil {
		h.sessionError(w, err)
		return
	}

	resp := PresetsResponse{
		Presets:  make([]PresetEstimate, 0, len(timeline.ExportPresets)),
		Duration: duration,
		Timecode: timeline.FormatTimecode(duration),
	}
	for _, p := range timeline.ExportPresets {
		resp.Presets = append(resp.Presets, PresetEstimate{
			ExportPreset: p,
			Estimate:     timeline.EstimateSize(p, duration),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export answers with the render plan for the current cut. A preset, when
// given, overrides the individual options.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	opts := req.ExportOptions
	var preset *timeline.ExportPreset
	if req.Preset != "" {
		p, ok := timeline.FindPreset(req.Preset)
		if !ok {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("Unknown preset %q", req.Preset))
			return
		}
		preset = &p
		opts = p.Options()
		if req.Filename != "" {
			opts.Filename = req.Filename
		}
	}

	s := h.liveSession(w, r)
	if s == nil {
		return
	}

	var resp ExportResponse
	err := s.Timeline(func(e *timeline.Engine) error {
		resp.ExportResult = e.ExportVideo(opts)
		if preset != nil {
			est := timeline.EstimateSize(*preset, e.State().Duration)
			resp.Estimate = &est
		}
		return nil
	})
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func finite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return timeline.ErrNotFinite
	}
	return nil
}
