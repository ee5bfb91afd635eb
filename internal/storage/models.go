package storage

import (
	"encoding/json"
	"time"
)

const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
	ProviderGitHub      = "github"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"` // nil for OAuth accounts
	Name         string    `json:"name,omitempty"`
	Image        string    `json:"image,omitempty"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UserSettings struct {
	UserID     string `json:"-"`
	Language   string `json:"language"`  // ar, en
	Theme      string `json:"theme"`     // light, dark, system
	UserMode   string `json:"userMode"`  // beginner, professional, powerUser
	SecureMode bool   `json:"secureMode"`
}

func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:   userID,
		Language: "ar",
		Theme:    "dark",
		UserMode: "beginner",
	}
}

type AuthSession struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type ProjectType string

const (
	ProjectPhoto ProjectType = "photo"
	ProjectVideo ProjectType = "video"
)

type Project struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Type        ProjectType     `json:"type"`
	Data        json.RawMessage `json:"data"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	IsPublic    bool            `json:"isPublic"`
	ShareID     *string         `json:"shareId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	// Owner is only filled on share lookups.
	Owner *ProjectOwner `json:"user,omitempty"`
}

type ProjectOwner struct {
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

type Share struct {
	ProjectID string `json:"projectId"`
	Views     int64  `json:"views"`
}

type MediaAsset struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"` // video, audio, image
	Path        string    `json:"-"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Duration    float64   `json:"duration"` // seconds
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
