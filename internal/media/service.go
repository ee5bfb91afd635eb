package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"knouxart/internal/cache"
	"knouxart/internal/storage"
)

var (
	ErrUnsupported = errors.New("unsupported media type")
	ErrTooLarge    = errors.New("file exceeds upload limit")
	ErrNoThumbnail = errors.New("no thumbnail for this asset")
)

// FallbackDuration is used when a file cannot be probed.
const FallbackDuration = 5.0

// AssetStore is the persistence the asset service needs.
type AssetStore interface {
	CreateAsset(a *storage.MediaAsset) error
	GetAsset(id string) (*storage.MediaAsset, error)
	ListAssets(userID string) ([]storage.MediaAsset, error)
	DeleteAsset(id string) error
	GetAllAssetPaths() (map[string]string, error)
}

// Service manages uploaded media files, their probe metadata and thumbnails.
type Service struct {
	store      AssetStore
	uploadDir  string
	maxSize    int64
	generator  *ThumbnailGenerator
	metadata   *MetadataExtractor
	cache      *cache.LRUCache
	logger     zerolog.Logger
	processing map[string]bool
	mu         sync.Mutex
}

func NewService(
	store AssetStore,
	uploadDir string,
	maxSize int64,
	generator *ThumbnailGenerator,
	metadata *MetadataExtractor,
	thumbCache *cache.LRUCache,
	logger zerolog.Logger,
) (*Service, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{
		store:      store,
		uploadDir:  uploadDir,
		maxSize:    maxSize,
		generator:  generator,
		metadata:   metadata,
		cache:      thumbCache,
		logger:     logger.With().Str("component", "media").Logger(),
		processing: make(map[string]bool),
	}, nil
}

// Import stores an uploaded file for the user and records it as an asset.
func (s *Service) Import(userID, filename string, r io.Reader) (*storage.MediaAsset, error) {
	kind := KindOf(filename)
	if kind == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
	}

	id := uuid.NewString()
	path := filepath.Join(s.uploadDir, id+filepath.Ext(filename))

	size, err := s.writeFile(path, r)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	asset := &storage.MediaAsset{
		ID:          id,
		UserID:      userID,
		Name:        filepath.Base(filename),
		Kind:        kind,
		Path:        path,
		ContentType: GetContentType(filename),
		Size:        size,
		Duration:    FallbackDuration,
		CreatedAt:   time.Now().UTC(),
	}
	s.probe(asset)

	if err := s.store.CreateAsset(asset); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("save asset: %w", err)
	}

	s.logger.Info().
		Str("id", id).
		Str("kind", kind).
		Str("size", humanize.Bytes(uint64(size))).
		Float64("duration", asset.Duration).
		Msg("asset imported")

	return asset, nil
}

func (s *Service) writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	limit := s.maxSize
	if limit <= 0 {
		limit = 1<<63 - 2
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if err != nil {
		return 0, fmt.Errorf("write file: %w", err)
	}
	if n > limit {
		return 0, fmt.Errorf("%w (%s)", ErrTooLarge, humanize.Bytes(uint64(limit)))
	}
	return n, nil
}

// probe fills duration and dimensions from ffprobe when it is installed.
// Images keep the fallback duration since they have no intrinsic length.
func (s *Service) probe(a *storage.MediaAsset) {
	if s.metadata == nil || !s.metadata.IsAvailable() {
		return
	}
	meta, err := s.metadata.Extract(a.Path)
	if err != nil || meta == nil {
		return
	}
	a.Width, a.Height = meta.Width, meta.Height
	if a.Kind != KindImage && meta.Duration > 0 {
		a.Duration = meta.Duration
	}
	s.logger.Debug().
		Str("id", a.ID).
		Str("codec", meta.VideoCodec).
		Float64("fps", meta.FrameRate).
		Bool("audio", meta.HasAudio()).
		Msg("asset probed")
}

// MaxSize is the upload limit in bytes; zero or less means unlimited.
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

func (s *Service) Get(id string) (*storage.MediaAsset, error) {
	return s.store.GetAsset(id)
}

func (s *Service) List(userID string) ([]storage.MediaAsset, error) {
	return s.store.ListAssets(userID)
}

// Delete removes the asset's file, thumbnail and row.
func (s *Service) Delete(a *storage.MediaAsset) error {
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	if s.generator != nil {
		if err := s.generator.Delete(a.ID); err != nil {
			s.logger.Warn().Err(err).Str("id", a.ID).Msg("failed to remove thumbnail")
		}
	}
	s.cache.Delete(a.ID)
	return s.store.DeleteAsset(a.ID)
}

// Thumbnail returns a preview image for the asset: the file itself for
// images, an extracted frame for videos.
func (s *Service) Thumbnail(a *storage.MediaAsset) ([]byte, string, error) {
	if data, ok := s.cache.Get(a.ID); ok {
		return data, thumbnailType(a), nil
	}

	var path string
	switch a.Kind {
	case KindImage:
		path = a.Path
	case KindVideo:
		if s.generator == nil {
			return nil, "", ErrNoThumbnail
		}
		path = s.generator.GetPath(a.ID)
		if !s.generator.Exists(a.ID) {
			if !s.generator.IsAvailable() {
				return nil, "", fmt.Errorf("%w: ffmpeg not available", ErrNoThumbnail)
			}
			s.logger.Info().Str("id", a.ID).Msg("generating thumbnail on demand")
			var err error
			if path, err = s.generator.Generate(a.Path, a.ID, a.Duration); err != nil {
				return nil, "", err
			}
		}
	default:
		return nil, "", ErrNoThumbnail
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read thumbnail: %w", err)
	}
	s.cache.Set(a.ID, data)
	return data, thumbnailType(a), nil
}

func thumbnailType(a *storage.MediaAsset) string {
	if a.Kind == KindImage {
		return a.ContentType
	}
	return "image/jpeg"
}

// PrepareThumbnail generates a video thumbnail ahead of the first request.
// Concurrent calls for the same asset collapse into one.
func (s *Service) PrepareThumbnail(a *storage.MediaAsset) {
	if a.Kind != KindVideo || s.generator == nil || !s.generator.IsAvailable() {
		return
	}

	s.mu.Lock()
	if s.processing[a.ID] {
		s.mu.Unlock()
		return
	}
	s.processing[a.ID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.processing, a.ID)
		s.mu.Unlock()
	}()

	if _, err := s.generator.Generate(a.Path, a.ID, a.Duration); err != nil {
		s.logger.Debug().Err(err).Str("id", a.ID).Msg("failed to generate thumbnail")
	}
}

// CacheStats returns cache statistics
func (s *Service) CacheStats() (count int, size int64) {
	return s.cache.Len(), s.cache.Size()
}
