package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knouxart/internal/cache"
	"knouxart/internal/storage"
)

func TestKindOf(t *testing.T) {
	tests := map[string]string{
		"clip.MP4":     KindVideo,
		"movie.webm":   KindVideo,
		"song.mp3":     KindAudio,
		"voice.WAV":    KindAudio,
		"photo.jpeg":   KindImage,
		"sticker.webp": KindImage,
		"notes.txt":    "",
		"noext":        "",
	}
	for name, want := range tests {
		assert.Equal(t, want, KindOf(name), name)
	}
	assert.True(t, IsSupported("a.png"))
	assert.Equal(t, "video/quicktime", GetContentType("a.MOV"))
	assert.Equal(t, "application/octet-stream", GetContentType("a.doc"))
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001"},
			{"codec_type": "audio", "codec_name": "aac", "channels": 6},
			{"codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 240}
		],
		"format": {"duration": "12.480000", "bit_rate": "4500000"}
	}`)

	meta, err := parseProbe(out)
	require.NoError(t, err)
	assert.Equal(t, 12.48, meta.Duration)
	assert.Equal(t, 1920, meta.Width)
	assert.Equal(t, "H264", meta.VideoCodec)
	assert.Equal(t, "AAC", meta.AudioCodec)
	assert.Equal(t, 6, meta.AudioChannels)
	assert.Equal(t, int64(4500000), meta.Bitrate)
	assert.InDelta(t, 29.97, meta.FrameRate, 0.01)
	assert.True(t, meta.HasAudio())

	rotated, err := parseProbe([]byte(`{"streams":[{"codec_type":"video","codec_name":"hevc",
		"width":1920,"height":1080,"avg_frame_rate":"0/0","tags":{"rotate":"90"}}],"format":{}}`))
	require.NoError(t, err)
	assert.Equal(t, 1080, rotated.Width)
	assert.Equal(t, 1920, rotated.Height)
	assert.Zero(t, rotated.FrameRate)
	assert.Zero(t, rotated.Duration)
	assert.False(t, rotated.HasAudio())

	_, err = parseProbe([]byte("not json"))
	assert.Error(t, err)
}

func TestThumbnailTime(t *testing.T) {
	assert.Equal(t, 5.0, thumbnailTime(0))
	assert.Equal(t, 2.0, thumbnailTime(20))
	assert.Equal(t, 5.0, thumbnailTime(600))
}

func TestThumbnailCommand(t *testing.T) {
	args := thumbnailCommand("in.mp4", "out.jpg", 2.5).GetArgs()
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-ss 2.500 -i in.mp4")
	assert.Contains(t, joined, "-vframes 1")
	assert.Contains(t, joined, "-vf scale=320:-1")
	assert.Contains(t, args, "out.jpg")
	assert.Contains(t, args, "-y")
}

type memAssets struct {
	assets map[string]*storage.MediaAsset
}

func (m *memAssets) CreateAsset(a *storage.MediaAsset) error {
	cp := *a
	m.assets[a.ID] = &cp
	return nil
}

func (m *memAssets) GetAsset(id string) (*storage.MediaAsset, error) {
	return m.assets[id], nil
}

func (m *memAssets) ListAssets(userID string) ([]storage.MediaAsset, error) {
	out := []storage.MediaAsset{}
	for _, a := range m.assets {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAssets) DeleteAsset(id string) error {
	delete(m.assets, id)
	return nil
}

func (m *memAssets) GetAllAssetPaths() (map[string]string, error) {
	out := make(map[string]string)
	for id, a := range m.assets {
		out[id] = a.Path
	}
	return out, nil
}

func newTestService(t *testing.T, maxSize int64) (*Service, *memAssets) {
	t.Helper()
	dir := t.TempDir()
	store := &memAssets{assets: make(map[string]*storage.MediaAsset)}
	logger := zerolog.Nop()

	svc, err := NewService(
		store,
		filepath.Join(dir, "uploads"),
		maxSize,
		NewThumbnailGenerator(filepath.Join(dir, "thumbs"), logger),
		nil,
		cache.NewLRUCache(10, 1<<20),
		logger,
	)
	require.NoError(t, err)
	return svc, store
}

func TestImportImage(t *testing.T) {
	svc, store := newTestService(t, 1024)

	a, err := svc.Import("u1", "photo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, KindImage, a.Kind)
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, int64(9), a.Size)
	assert.Equal(t, FallbackDuration, a.Duration)
	assert.Equal(t, "photo.png", a.Name)
	assert.FileExists(t, a.Path)
	assert.Contains(t, store.assets, a.ID)

	data, ct, err := svc.Thumbnail(a)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", ct)

	count, _ := svc.CacheStats()
	assert.Equal(t, 1, count)

	list, err := svc.List("u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestImportRejects(t *testing.T) {
	svc, store := newTestService(t, 4)

	_, err := svc.Import("u1", "doc.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = svc.Import("u1", "big.mp3", strings.NewReader("too many bytes"))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, store.assets)

	entries, _ := os.ReadDir(svc.uploadDir)
	assert.Empty(t, entries, "partial upload removed")
}

func TestAudioHasNoThumbnail(t *testing.T) {
	svc, _ := newTestService(t, 1024)
	a, err := svc.Import("u1", "song.mp3", strings.NewReader("id3"))
	require.NoError(t, err)

	_, _, err = svc.Thumbnail(a)
	assert.ErrorIs(t, err, ErrNoThumbnail)
}

func TestCachedVideoThumbnail(t *testing.T) {
	svc, _ := newTestService(t, 1024)
	a := &storage.MediaAsset{ID: "v1", Kind: KindVideo}

	require.NoError(t, os.WriteFile(svc.generator.GetPath("v1"), []byte("jpeg"), 0644))

	data, ct, err := svc.Thumbnail(a)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "image/jpeg", ct)
}

func TestDeleteAsset(t *testing.T) {
	svc, store := newTestService(t, 1024)
	a, err := svc.Import("u1", "photo.png", strings.NewReader("png"))
	require.NoError(t, err)
	svc.Thumbnail(a)

	require.NoError(t, svc.Delete(a))
	assert.NoFileExists(t, a.Path)
	assert.Empty(t, store.assets)
	count, _ := svc.CacheStats()
	assert.Equal(t, 0, count)
}

func TestCleanupMissingAssets(t *testing.T) {
	svc, store := newTestService(t, 1024)
	kept, err := svc.Import("u1", "a.png", strings.NewReader("a"))
	require.NoError(t, err)
	gone, err := svc.Import("u1", "b.png", strings.NewReader("b"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(gone.Path))

	n, err := svc.CleanupMissingAssets()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, store.assets, kept.ID)
	assert.NotContains(t, store.assets, gone.ID)
}
