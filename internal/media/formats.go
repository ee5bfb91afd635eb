package media

import (
	"path/filepath"
	"strings"
)

const (
	KindVideo = "video"
	KindAudio = "audio"
	KindImage = "image"
)

var contentTypes = map[string]string{
	// video
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	// audio
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	// image
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// KindOf classifies a file by extension. Unsupported files return "".
func KindOf(filename string) string {
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return ""
	}
	kind, _, _ := strings.Cut(ct, "/")
	return kind
}

func IsSupported(filename string) bool {
	return KindOf(filename) != ""
}

func GetContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
