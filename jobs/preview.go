package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"log/slog"
	"os"

	_ "image/gif"
	_ "image/png"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-esw/meridian-esw/internal/jobs"
)

// Previews are written next to the original as "<path>.preview.jpg",
// capped at this width. Callers derive the preview path the same way.
const previewMaxWidth = 320

// PreviewSuffix is appended to the source path to name the preview file.
const PreviewSuffix = ".preview.jpg"

// RenderPreviewJob renders small JPEG previews for uploaded images.
type RenderPreviewJob struct {
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewRenderPreviewJob initialises the preview handler.
func NewRenderPreviewJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *RenderPreviewJob {
	return &RenderPreviewJob{logger: logger, metrics: metrics}
}

// Handle decodes the source image, downscales it and writes the preview.
func (j *RenderPreviewJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("render preview: handler not configured")
	}
	var payload RenderPreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Path == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics.Track(TaskTypeRenderPreview)
	err := j.render(payload.Path)
	err = tracker.End(err)
	if err != nil {
		// A file that vanished or never was an image will not become one
		// on retry.
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, image.ErrFormat) {
			j.logger.Warn("render preview skipped", slog.String("path", payload.Path), slog.Any("error", err))
			return asynq.SkipRetry
		}
		j.logger.Error("render preview failed", slog.String("path", payload.Path), slog.Any("error", err))
		return err
	}
	j.logger.Info("preview rendered", slog.String("path", payload.Path))
	return nil
}

func (j *RenderPreviewJob) render(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return err
	}
	preview := downscale(img, previewMaxWidth)

	dst, err := os.Create(path + PreviewSuffix)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(dst, preview, &jpeg.Options{Quality: 80}); err != nil {
		_ = dst.Close()
		_ = os.Remove(path + PreviewSuffix)
		return err
	}
	return dst.Close()
}

// downscale resizes img so its width does not exceed maxWidth, keeping the
// aspect ratio. Images already narrow enough pass through unchanged.
func downscale(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxWidth || width == 0 || height == 0 {
		return img
	}
	outWidth := maxWidth
	outHeight := height * maxWidth / width
	if outHeight < 1 {
		outHeight = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, outWidth, outHeight))
	for y := 0; y < outHeight; y++ {
		srcY := bounds.Min.Y + y*height/outHeight
		for x := 0; x < outWidth; x++ {
			srcX := bounds.Min.X + x*width/outWidth
			out.Set(x, y, img.At(srcX, srcY))
		}
	}
	return out
}
