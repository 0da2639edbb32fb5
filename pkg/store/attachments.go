package store

import (
	"context"
	"errors"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/model"
)

// Attachments holds blob metadata; the bytes themselves live in the
// blob store under the same id.
type Attachments struct {
	session *db.Session
}

func NewAttachments(session *db.Session) *Attachments {
	return &Attachments{session: session}
}

func (s *Attachments) Insert(ctx context.Context, att *model.Attachment) error {
	return s.session.Query(`INSERT INTO attachments (id, file_name, size, content_type, created_at) VALUES (?, ?, ?, ?, ?)`,
		cqlUUID(att.ID), att.FileName, att.Size, att.ContentType, att.CreatedAt).
		WithContext(ctx).Exec()
}

func (s *Attachments) FindByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	att := model.Attachment{ID: id}
	err := s.session.Query(`SELECT file_name, size, content_type, created_at FROM attachments WHERE id = ?`,
		cqlUUID(id)).
		WithContext(ctx).Scan(&att.FileName, &att.Size, &att.ContentType, &att.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errs.NotFound("attachment", id)
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// FindByIDs batch-resolves metadata; unknown ids are absent from the
// result.
func (s *Attachments) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Attachment, error) {
	out := make(map[uuid.UUID]model.Attachment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	iter := s.session.Query(`SELECT id, file_name, size, content_type, created_at FROM attachments WHERE id IN ?`,
		cqlUUIDs(ids)).
		WithContext(ctx).Iter()

	var id gocql.UUID
	var att model.Attachment
	for iter.Scan(&id, &att.FileName, &att.Size, &att.ContentType, &att.CreatedAt) {
		att.ID = uuid.UUID(id)
		out[att.ID] = att
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Attachments) Delete(ctx context.Context, id uuid.UUID) error {
	return s.session.Query(`DELETE FROM attachments WHERE id = ?`, cqlUUID(id)).
		WithContext(ctx).Exec()
}
