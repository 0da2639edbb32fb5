package storage

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/model"
)

// Local stores attachment bytes as flat files under a root directory.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.StorageFailure(err)
	}
	return &Local{root: root}, nil
}

func (l *Local) path(id uuid.UUID) string {
	return filepath.Join(l.root, id.String())
}

func (l *Local) Put(_ context.Context, id uuid.UUID, data []byte) error {
	if err := os.WriteFile(l.path(id), data, 0o644); err != nil {
		return errs.StorageFailure(err)
	}
	return nil
}

func (l *Local) Get(_ context.Context, id uuid.UUID) (io.ReadCloser, error) {
	f, err := os.Open(l.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("attachment", id)
		}
		return nil, errs.StorageFailure(err)
	}
	return f, nil
}

// Download streams the file inline with the stored content type.
func (l *Local) Download(w http.ResponseWriter, r *http.Request, att model.Attachment) error {
	f, err := l.Get(r.Context(), att.ID)
	if err != nil {
		return err
	}
	defer f.Close()

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(att.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+att.FileName+`"`)
	if _, err := io.Copy(w, f); err != nil {
		return errs.StorageFailure(err)
	}
	return nil
}
