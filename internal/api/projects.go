package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"knouxart/internal/storage"
)

// ListProjects returns the caller's projects, or a shared project when the
// share query parameter is present. Share lookups count a view.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())
	q := r.URL.Query()

	if shareID := q.Get("share"); shareID != "" {
		p, err := h.storage.GetProjectByShareID(shareID)
		if err != nil {
			h.logger.Error().Err(err).Str("share", shareID).Msg("failed to get shared project")
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgListFailed)
			return
		}
		if p == nil {
			writeError(w, http.StatusNotFound, "PROJECT_NOT_FOUND", msgProjectNotFound)
			return
		}
		if err := h.storage.IncrementShareViews(p.ID); err != nil {
			h.logger.Warn().Err(err).Str("project", p.ID).Msg("failed to count share view")
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	projectType := storage.ProjectType(q.Get("type"))
	projects, err := h.storage.ListProjects(u.ID, projectType)
	if err != nil {
		h.logger.Error().Err(err).Str("user", u.ID).Msg("failed to list projects")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgListFailed)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())

	var req CreateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}
	if req.Type != storage.ProjectPhoto && req.Type != storage.ProjectVideo {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Project type must be photo or video")
		return
	}

	now := time.Now().UTC()
	p := &storage.Project{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Data:        req.Data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(p.Data) == 0 {
		p.Data = json.RawMessage("null")
	}

	if err := h.storage.CreateProject(p); err != nil {
		h.logger.Error().Err(err).Str("user", u.ID).Msg("failed to create project")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgCreateFailed)
		return
	}

	h.logger.Info().Str("project", p.ID).Str("type", string(p.Type)).Msg("project created")
	writeJSON(w, http.StatusOK, p)
}

// ownedProject loads a project and answers 403 unless the caller owns it.
// Missing projects get the same answer so ids cannot be probed.
func (h *Handler) ownedProject(w http.ResponseWriter, r *http.Request, id string) *storage.Project {
	u := UserFrom(r.Context())

	p, err := h.storage.GetProject(id)
	if err != nil {
		h.logger.Error().Err(err).Str("project", id).Msg("failed to get project")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get project")
		return nil
	}
	if p == nil || p.UserID != u.ID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", msgProjectForbidden)
		return nil
	}
	return p
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgProjectIDMissing)
		return
	}

	p := h.ownedProject(w, r, req.ID)
	if p == nil {
		return
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Thumbnail != nil {
		p.Thumbnail = *req.Thumbnail
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}

	if err := h.storage.UpdateProject(p); err != nil {
		h.logger.Error().Err(err).Str("project", p.ID).Msg("failed to update project")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgUpdateFailed)
		return
	}

	// A new payload supersedes whatever a live session holds.
	if len(req.Data) > 0 {
		err := h.sessions.Replace(p.ID, func() error {
			return h.storage.SaveProjectData(p.ID, req.Data)
		})
		if err != nil {
			h.logger.Error().Err(err).Str("project", p.ID).Msg("failed to update project data")
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgUpdateFailed)
			return
		}
		p.Data = req.Data
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgProjectIDMissing)
		return
	}

	p := h.ownedProject(w, r, id)
	if p == nil {
		return
	}

	// The live session goes with the project, unsaved.
	err := h.sessions.Replace(p.ID, func() error {
		return h.storage.DeleteProject(p.ID)
	})
	if err != nil {
		h.logger.Error().Err(err).Str("project", p.ID).Msg("failed to delete project")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgDeleteFailed)
		return
	}

	h.logger.Info().Str("project", p.ID).Msg("project deleted")
	writeJSON(w, http.StatusOK, MessageResponse{Message: msgProjectDeleted})
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p := h.ownedProject(w, r, chi.URLParam(r, "id"))
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ShareProject publishes the project. Sharing an already shared project
// keeps its share id.
func (h *Handler) ShareProject(w http.ResponseWriter, r *http.Request) {
	p := h.ownedProject(w, r, chi.URLParam(r, "id"))
	if p == nil {
		return
	}

	shareID := uuid.NewString()
	if p.ShareID != nil {
		shareID = *p.ShareID
	}
	if err := h.storage.ShareProject(p.ID, shareID); err != nil {
		h.logger.Error().Err(err).Str("project", p.ID).Msg("failed to share project")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to share project")
		return
	}

	var views int64
	if sh, err := h.storage.GetShare(p.ID); err == nil && sh != nil {
		views = sh.Views
	}

	writeJSON(w, http.StatusOK, ShareResponse{
		ShareID: shareID,
		URL:     "/api/v1/projects?share=" + shareID,
		Views:   views,
	})
}
