package api

import (
	"encoding/json"

	"knouxart/internal/photo"
	"knouxart/internal/storage"
	"knouxart/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Auth DTOs

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type RegisterResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string        `json:"token"`
	User  *storage.User `json:"user"`
}

type MeResponse struct {
	User     *storage.User         `json:"user"`
	Settings *storage.UserSettings `json:"settings"`
}

type SettingsRequest struct {
	Language   *string `json:"language"`
	Theme      *string `json:"theme"`
	UserMode   *string `json:"userMode"`
	SecureMode *bool   `json:"secureMode"`
}

// Project DTOs

type CreateProjectRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        storage.ProjectType `json:"type"`
	Data        json.RawMessage     `json:"data"`
}

type UpdateProjectRequest struct {
	ID          string          `json:"id"`
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Thumbnail   *string         `json:"thumbnail"`
	IsPublic    *bool           `json:"isPublic"`
	Data        json.RawMessage `json:"data"`
}

type ShareResponse struct {
	ShareID string `json:"shareId"`
	URL     string `json:"url"`
	Views   int64  `json:"views"`
}

// Media DTOs

type AssetResponse struct {
	Asset        *storage.MediaAsset `json:"asset"`
	StreamURL    string              `json:"streamUrl"`
	ThumbnailURL string              `json:"thumbnailUrl,omitempty"`
}

type AssetListResponse struct {
	Assets []AssetResponse `json:"assets"`
}

// Session DTOs

type SessionResponse struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"projectId"`
	Type      storage.ProjectType `json:"type"`
	StreamURL string              `json:"streamUrl"`
	State     any                 `json:"state"`
}

// Timeline DTOs

type AddClipRequest struct {
	AssetID   string         `json:"assetId"`
	StartTime *float64       `json:"startTime"`
	Track     *int           `json:"track"`
	Clip      *timeline.Clip `json:"clip"`
}

type AddTextRequest struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

type TrimRequest struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type SplitRequest struct {
	Time float64 `json:"time"`
}

type SpeedRequest struct {
	Speed float64 `json:"speed"`
}

type MoveRequest struct {
	StartTime float64 `json:"startTime"`
	Track     int     `json:"track"`
}

type SelectRequest struct {
	ClipID string `json:"clipId"`
}

type ValueRequest struct {
	Value float64 `json:"value"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

type PresetsResponse struct {
	Presets  []PresetEstimate `json:"presets"`
	Duration float64          `json:"duration"`
	Timecode string           `json:"timecode"`
}

type PresetEstimate struct {
	timeline.ExportPreset
	Estimate timeline.SizeEstimate `json:"estimate"`
}

type ExportRequest struct {
	Preset string `json:"preset"`
	timeline.ExportOptions
}

// Photo DTOs

type FilterRequest struct {
	Filter photo.FilterKind `json:"filter"`
}

type ToolRequest struct {
	Tool photo.Tool `json:"tool"`
}

type BrushRequest struct {
	Size    *float64 `json:"size"`
	Color   *string  `json:"color"`
	Opacity *float64 `json:"opacity"`
}

type PhotoZoomRequest struct {
	Zoom   *float64 `json:"zoom"`
	Action string   `json:"action"` // in, out, fit
	Step   float64  `json:"step"`
}

type AddLayerRequest struct {
	Type    photo.LayerKind     `json:"type"`
	AssetID string              `json:"assetId"`
	Text    *photo.TextOptions  `json:"text"`
	Shape   *photo.ShapeOptions `json:"shape"`
}

type LayerSelectRequest struct {
	LayerID string `json:"layerId"`
}

type RotateRequest struct {
	Angle float64 `json:"angle"`
}

type FlipRequest struct {
	Axis string `json:"axis"` // horizontal, vertical
}

type ResizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type HistoryResponse struct {
	Applied bool `json:"applied"`
	State   any  `json:"state"`
}

type ClipResponse struct {
	Clip  timeline.Clip  `json:"clip"`
	State timeline.State `json:"state"`
}

type ExportResponse struct {
	timeline.ExportResult
	Estimate *timeline.SizeEstimate `json:"estimate,omitempty"`
}
