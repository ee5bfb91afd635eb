package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"knouxart/internal/auth"
	"knouxart/internal/storage"
)

const stateCookie = "knoux_oauth_state"

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	u, err := h.auth.Register(req.Email, req.Password, req.Name)
	switch {
	case errors.Is(err, auth.ErrCredentialsRequired),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("registration failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgRegisterFailed)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: msgAccountCreated,
		User:    UserSummary{ID: u.ID, Email: u.Email},
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	u, err := h.auth.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrLoginRequired):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	case errors.Is(err, auth.ErrUnknownEmail), errors.Is(err, auth.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	h.signIn(w, u)
}

// signIn starts a session, sets the cookie and answers with the token for
// clients that prefer the Authorization header.
func (h *Handler) signIn(w http.ResponseWriter, u *storage.User) {
	sess, err := h.auth.StartSession(u.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user", u.ID).Msg("failed to start session")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start session")
		return
	}
	h.setCookie(w, h.cookie.CookieName, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, LoginResponse{Token: sess.Token, User: u})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.SecureCookie,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(RequestToken(r, h.cookie.CookieName)); err != nil {
		h.logger.Error().Err(err).Msg("failed to revoke session")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign out")
		return
	}
	h.clearCookie(w, h.cookie.CookieName)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())

	settings, err := h.storage.GetSettings(u.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user", u.ID).Msg("failed to get settings")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get settings")
		return
	}
	if settings == nil {
		def := storage.DefaultSettings(u.ID)
		settings = &def
	}

	writeJSON(w, http.StatusOK, MeResponse{User: u, Settings: settings})
}

// OAuthStart redirects to the provider's consent page with a state value
// that the callback checks against a short-lived cookie.
func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.auth.Provider(chi.URLParam(r, "provider"))
	if !ok {
		writeError(w, http.StatusNotFound, "PROVIDER_NOT_FOUND", "Sign-in provider not configured")
		return
	}

	state, err := auth.NewState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start sign-in")
		return
	}
	h.setCookie(w, stateCookie, state, time.Now().Add(10*time.Minute))

	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	p, ok := h.auth.Provider(name)
	if !ok {
		writeError(w, http.StatusNotFound, "PROVIDER_NOT_FOUND", "Sign-in provider not configured")
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "Sign-in state mismatch")
		return
	}
	h.clearCookie(w, stateCookie)

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Missing authorization code")
		return
	}

	profile, err := p.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn().Err(err).Str("provider", name).Msg("oauth exchange failed")
		writeError(w, http.StatusUnauthorized, "OAUTH_FAILED", msgUnauthorized)
		return
	}

	u, err := h.auth.SignInOAuth(name, profile)
	if errors.Is(err, auth.ErrNoEmail) {
		writeError(w, http.StatusBadRequest, "NO_EMAIL", err.Error())
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("provider", name).Msg("oauth sign-in failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	h.signIn(w, u)
}

// Settings

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())

	settings, err := h.storage.GetSettings(u.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user", u.ID).Msg("failed to get settings")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get settings")
		return
	}
	if settings == nil {
		def := storage.DefaultSettings(u.ID)
		settings = &def
	}
	writeJSON(w, http.StatusOK, settings)
}

var (
	languages = map[string]bool{"ar": true, "en": true}
	themes    = map[string]bool{"light": true, "dark": true, "system": true}
	userModes = map[string]bool{"beginner": true, "professional": true, "powerUser": true}
)

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())

	var req SettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	settings, err := h.storage.GetSettings(u.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user", u.ID).Msg("failed to get settings")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get settings")
		return
	}
	if settings == nil {
		def := storage.DefaultSettings(u.ID)
		settings = &def
	}

	if req.Language != nil {
		if !languages[*req.Language] {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Unsupported language")
			return
		}
		settings.Language = *req.Language
	}
	if req.Theme != nil {
		if !themes[*req.Theme] {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Unsupported theme")
			return
		}
		settings.Theme = *req.Theme
	}
	if req.UserMode != nil {
		if !userModes[*req.UserMode] {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Unsupported user mode")
			return
		}
		settings.UserMode = *req.UserMode
	}
	if req.SecureMode != nil {
		settings.SecureMode = *req.SecureMode
	}

	if err := h.storage.SaveSettings(settings); err != nil {
		h.logger.Error().Err(err).Str("user", u.ID).Msg("failed to save settings")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
