// Package jobs holds the asynq task definitions and the worker runtime.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRenderPreview renders a downscaled preview for an uploaded image.
	TaskTypeRenderPreview = "attachment:preview"
	// TaskTypeIdempotencyCleanup prunes expired idempotency keys.
	TaskTypeIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// RenderPreviewPayload names the stored file to render a preview for.
type RenderPreviewPayload struct {
	Path string `json:"path"`
}

// NewRenderPreviewTask constructs the preview task.
func NewRenderPreviewTask(payload RenderPreviewPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRenderPreview, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task. The payload is
// empty; retention is configured on the handler.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}
