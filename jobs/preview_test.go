package jobs

import (
	"context"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
)

func TestDownscaleKeepsAspectRatio(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	out := downscale(img, 320)
	bounds := out.Bounds()
	if bounds.Dx() != 320 {
		t.Fatalf("expected width 320, got %d", bounds.Dx())
	}
	if bounds.Dy() != 240 {
		t.Fatalf("expected height 240, got %d", bounds.Dy())
	}
}

func TestDownscalePassesThroughSmallImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	out := downscale(img, 320)
	if out != image.Image(img) {
		t.Fatal("small image should pass through unchanged")
	}
}

func TestRenderPreviewWritesJPEG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.png")

	src := image.NewRGBA(image.Rect(0, 0, 640, 480))
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	job := NewRenderPreviewJob(slog.Default(), nil)
	task, err := NewRenderPreviewTask(RenderPreviewPayload{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	preview, err := os.Open(path + PreviewSuffix)
	if err != nil {
		t.Fatalf("preview missing: %v", err)
	}
	defer preview.Close()
	cfg, format, err := image.DecodeConfig(preview)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("expected jpeg preview, got %s", format)
	}
	if cfg.Width != 320 {
		t.Fatalf("expected preview width 320, got %d", cfg.Width)
	}
}

func TestRenderPreviewSkipsMissingFile(t *testing.T) {
	job := NewRenderPreviewJob(slog.Default(), nil)
	task, err := NewRenderPreviewTask(RenderPreviewPayload{Path: filepath.Join(t.TempDir(), "gone.png")})
	if err != nil {
		t.Fatal(err)
	}
	if err := job.Handle(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
