// Package attachments stores uploaded files on local disk and keeps the
// metadata embedded on the owning entity.
package attachments

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Attachment is the metadata embedded in the owning entity's document.
type Attachment struct {
	OriginalName string `json:"originalName"`
	Path         string `json:"path"`
	Mimetype     string `json:"mimetype"`
	Size         int64  `json:"size"`
	PreviewPath  string `json:"previewPath,omitempty"`
}

// PreviewEnqueuer schedules best-effort preview rendering for a stored file.
type PreviewEnqueuer interface {
	EnqueuePreview(ctx context.Context, path string) error
}

// Store writes uploads under a base directory. Files are stored under a
// random name; the original name survives only in metadata.
type Store struct {
	dir      string
	logger   *slog.Logger
	enqueuer PreviewEnqueuer
}

// NewStore constructs a Store rooted at dir.
func NewStore(dir string, logger *slog.Logger, enqueuer PreviewEnqueuer) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("attachments: upload dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("attachments: create upload dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger, enqueuer: enqueuer}, nil
}

// Save persists one multipart file and returns its metadata. Preview
// rendering is scheduled best-effort; a failed enqueue is logged and
// swallowed, it never fails the upload.
func (s *Store) Save(ctx context.Context, fh *multipart.FileHeader) (Attachment, error) {
	src, err := fh.Open()
	if err != nil {
		return Attachment{}, fmt.Errorf("attachments: open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + sanitizeExt(fh.Filename)
	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Attachment{}, fmt.Errorf("attachments: create file: %w", err)
	}
	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return Attachment{}, fmt.Errorf("attachments: write file: %w", err)
	}

	att := Attachment{
		OriginalName: fh.Filename,
		Path:         path,
		Mimetype:     fh.Header.Get("Content-Type"),
		Size:         size,
	}

	if s.enqueuer != nil && strings.HasPrefix(att.Mimetype, "image/") {
		if err := s.enqueuer.EnqueuePreview(ctx, path); err != nil {
			s.logger.Warn("enqueue preview", slog.String("path", path), slog.Any("error", err))
		}
	}
	return att, nil
}

// Remove deletes a stored file and its preview, if present.
func (s *Store) Remove(att Attachment) error {
	if att.PreviewPath != "" {
		_ = os.Remove(att.PreviewPath)
	}
	if att.Path == "" {
		return nil
	}
	return os.Remove(att.Path)
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
