package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"knouxart/internal/auth"
	"knouxart/internal/config"
	"knouxart/internal/media"
	"knouxart/internal/session"
	"knouxart/internal/storage"
	"knouxart/internal/streaming"
)

const Version = "0.1.0"

// Messages shown to the Arabic-language client.
const (
	msgUnauthorized     = "غير مصرح"
	msgInvalidBody      = "بيانات الطلب غير صالحة"
	msgProjectNotFound  = "المشروع غير موجود"
	msgProjectForbidden = "المشروع غير موجود أو لا تملك صلاحياته"
	msgProjectIDMissing = "معرف المشروع مطلوب"
	msgProjectDeleted   = "تم حذف المشروع بنجاح"
	msgAccountCreated   = "تم إنشاء الحساب بنجاح"
	msgListFailed       = "خطأ في جلب المشاريع"
	msgCreateFailed     = "خطأ في إنشاء المشروع"
	msgUpdateFailed     = "خطأ في تحديث المشروع"
	msgDeleteFailed     = "خطأ في حذف المشروع"
	msgRegisterFailed   = "حدث خطأ أثناء إنشاء الحساب"
)

type Handler struct {
	storage  *storage.SQLiteStorage
	auth     *auth.Service
	media    *media.Service
	sessions *session.Manager
	streamer *streaming.Handler
	upgrader websocket.Upgrader
	cookie   config.AuthConfig
	logger   zerolog.Logger
}

func NewHandler(
	store *storage.SQLiteStorage,
	authService *auth.Service,
	mediaService *media.Service,
	sessions *session.Manager,
	authCfg config.AuthConfig,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		storage:  store,
		auth:     authService,
		media:    mediaService,
		sessions: sessions,
		streamer: streaming.NewHandler(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cookie: authCfg,
		logger: logger,
	}
}

// SetAllowedOrigin restricts which browser origins may open session streams.
// "*" or an empty origin allows any.
func (h *Handler) SetAllowedOrigin(origin string) {
	if origin == "" || origin == "*" {
		return
	}
	h.upgrader.CheckOrigin = func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || o == origin
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  Version,
		Sessions: h.sessions.Len(),
	}
	writeJSON(w, http.StatusOK, resp)
}

type ctxKey int

const userKey ctxKey = iota

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *storage.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user, or nil on public routes.
func UserFrom(ctx context.Context) *storage.User {
	u, _ := ctx.Value(userKey).(*storage.User)
	return u
}

// RequestToken reads the session token from the Authorization header,
// falling back to the session cookie.
func RequestToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeJSON encodes before writing the status so a value that cannot be
// encoded answers 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
