package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Media    MediaConfig    `yaml:"media"`
	Auth     AuthConfig     `yaml:"auth"`
	Editor   EditorConfig   `yaml:"editor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	AllowedOrigin string        `yaml:"allowed_origin"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type MediaConfig struct {
	UploadDir     string `yaml:"upload_dir"`
	ThumbnailDir  string `yaml:"thumbnail_dir"`
	MaxUploadSize int64  `yaml:"max_upload_size"` // bytes
	CacheCapacity int    `yaml:"cache_capacity"`
	CacheMaxSize  int64  `yaml:"cache_max_size"` // bytes
}

type AuthConfig struct {
	SessionTTL   time.Duration `yaml:"session_ttl"`
	CookieName   string        `yaml:"cookie_name"`
	SecureCookie bool          `yaml:"secure_cookie"`
	Google       OAuthProvider `yaml:"google"`
	GitHub       OAuthProvider `yaml:"github"`
}

type OAuthProvider struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether the provider has credentials configured.
func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type EditorConfig struct {
	MaxSessions int `yaml:"max_sessions"`
	FrameRate   int `yaml:"frame_rate"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          6540,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  0,
			AllowedOrigin: "*",
		},
		Database: DatabaseConfig{
			Path: "data/knouxart.db",
		},
		Media: MediaConfig{
			UploadDir:     "data/uploads",
			ThumbnailDir:  "data/thumbnails",
			MaxUploadSize: 512 * 1024 * 1024, // 512 MB
			CacheCapacity: 500,
			CacheMaxSize:  128 * 1024 * 1024, // 128 MB
		},
		Auth: AuthConfig{
			SessionTTL: 30 * 24 * time.Hour,
			CookieName: "knoux_session",
		},
		Editor: EditorConfig{
			MaxSessions: 64,
			FrameRate:   30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// OAuth credentials are usually injected by the deployment rather than the config file.
func applyEnv(cfg *Config) {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	overlay(&cfg.Auth.Google.ClientID, "GOOGLE_CLIENT_ID")
	overlay(&cfg.Auth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	overlay(&cfg.Auth.GitHub.ClientID, "GITHUB_ID")
	overlay(&cfg.Auth.GitHub.ClientSecret, "GITHUB_SECRET")
}
