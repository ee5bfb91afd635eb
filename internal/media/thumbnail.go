package media

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type ThumbnailGenerator struct {
	outputDir string
	logger    zerolog.Logger
}

func NewThumbnailGenerator(outputDir string, logger zerolog.Logger) *ThumbnailGenerator {
	os.MkdirAll(outputDir, 0755)

	return &ThumbnailGenerator{
		outputDir: outputDir,
		logger:    logger,
	}
}

func (t *ThumbnailGenerator) IsAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// thumbnailTime picks the frame 10% into the video, capped at 5 seconds.
func thumbnailTime(duration float64) float64 {
	ts := 5.0
	if duration > 0 {
		if tenPercent := duration / 10; tenPercent < ts {
			ts = tenPercent
		}
	}
	return ts
}

// thumbnailCommand extracts one frame at ts, scaled to 320px wide, as a
// high quality JPEG.
func thumbnailCommand(videoPath, outputPath string, ts float64) *ffmpeg.Stream {
	return ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.3f", ts)}).
		Output(outputPath, ffmpeg.KwArgs{
			"vframes": 1,
			"vf":      "scale=320:-1",
			"q:v":     2,
		}).
		OverWriteOutput()
}

// Generate creates a thumbnail for the video file and returns its path.
func (t *ThumbnailGenerator) Generate(videoPath string, assetID string, duration float64) (string, error) {
	outputPath := t.GetPath(assetID)

	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, nil
	}

	var stderr bytes.Buffer
	err := thumbnailCommand(videoPath, outputPath, thumbnailTime(duration)).
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		t.logger.Debug().
			Err(err).
			Str("video", videoPath).
			Str("output", stderr.String()).
			Msg("ffmpeg thumbnail generation failed")
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("thumbnail file not created")
	}

	t.logger.Debug().
		Str("video", videoPath).
		Str("thumbnail", outputPath).
		Msg("thumbnail generated")

	return outputPath, nil
}

func (t *ThumbnailGenerator) Delete(assetID string) error {
	err := os.Remove(t.GetPath(assetID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (t *ThumbnailGenerator) Exists(assetID string) bool {
	_, err := os.Stat(t.GetPath(assetID))
	return err == nil
}

func (t *ThumbnailGenerator) GetPath(assetID string) string {
	return filepath.Join(t.outputDir, assetID+".jpg")
}
