// Package storage holds attachment bytes, keyed by attachment id.
// Backends are swappable between the local filesystem and S3 without
// the rest of the system noticing; metadata stays in the database.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/model"
)

type Blob interface {
	// Put writes the bytes for an attachment. It is at-most-once: a
	// failure aborts the enclosing message creation.
	Put(ctx context.Context, id uuid.UUID, data []byte) error
	// Get opens the stored bytes for reading.
	Get(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
	// Download answers an HTTP download request for the attachment,
	// either by streaming the bytes or by redirecting to a signed URL.
	Download(w http.ResponseWriter, r *http.Request, att model.Attachment) error
}

// FromEnv builds the backend selected by STORAGE_TYPE (local | s3).
func FromEnv(ctx context.Context) (Blob, error) {
	switch kind := os.Getenv("STORAGE_TYPE"); kind {
	case "", "local":
		root := os.Getenv("STORAGE_LOCAL_ROOT")
		if root == "" {
			root = ".chatcore/storage"
		}
		return NewLocal(root)
	case "s3":
		return NewS3FromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q", kind)
	}
}
