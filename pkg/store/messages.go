// Package store implements the persistent stores on ScyllaDB. Multi-row
// mutations that must be observed all-or-nothing (private channel
// creation, cascade deletes, dual-table read-position writes) go
// through logged batches.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/model"
)

func cqlUUID(id uuid.UUID) gocql.UUID { return gocql.UUID(id) }

func cqlUUIDs(ids []uuid.UUID) []gocql.UUID {
	out := make([]gocql.UUID, len(ids))
	for i, id := range ids {
		out[i] = gocql.UUID(id)
	}
	return out
}

func fromCQLUUIDs(ids []gocql.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		out[i] = uuid.UUID(id)
	}
	return out
}

// Messages is the append-only per-channel message log. The main table
// clusters each channel partition on (created_at DESC, id DESC);
// messages_by_id maps a bare message id back to its clustering key so
// single-message lookups stay cheap.
type Messages struct {
	session *db.Session
}

func NewMessages(session *db.Session) *Messages {
	return &Messages{session: session}
}

// Insert appends a message, optionally persisting attachment metadata
// rows in the same logged batch so a message never references metadata
// that was not written.
func (s *Messages) Insert(ctx context.Context, m *model.Message, attachments []model.Attachment) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO messages (channel_id, created_at, id, author_id, content, updated_at, attachment_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cqlUUID(m.ChannelID), m.CreatedAt, m.ID, cqlUUID(m.AuthorID), m.Content, m.UpdatedAt, cqlUUIDs(m.AttachmentIDs))
	batch.Query(`INSERT INTO messages_by_id (id, channel_id, created_at) VALUES (?, ?, ?)`,
		m.ID, cqlUUID(m.ChannelID), m.CreatedAt)
	for _, att := range attachments {
		batch.Query(`INSERT INTO attachments (id, file_name, size, content_type, created_at) VALUES (?, ?, ?, ?, ?)`,
			cqlUUID(att.ID), att.FileName, att.Size, att.ContentType, att.CreatedAt)
	}
	return s.session.ExecuteBatch(batch)
}

func (s *Messages) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	var channelID gocql.UUID
	var createdAt time.Time
	err := s.session.Query(`SELECT channel_id, created_at FROM messages_by_id WHERE id = ?`, id).
		WithContext(ctx).Scan(&channelID, &createdAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errs.NotFound("message", id)
	}
	if err != nil {
		return nil, err
	}

	m := model.Message{ID: id, ChannelID: uuid.UUID(channelID), CreatedAt: createdAt}
	var authorID gocql.UUID
	var attachmentIDs []gocql.UUID
	err = s.session.Query(`SELECT author_id, content, updated_at, attachment_ids FROM messages
		WHERE channel_id = ? AND created_at = ? AND id = ?`,
		channelID, createdAt, id).
		WithContext(ctx).Scan(&authorID, &m.Content, &m.UpdatedAt, &attachmentIDs)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errs.NotFound("message", id)
	}
	if err != nil {
		return nil, err
	}
	m.AuthorID = uuid.UUID(authorID)
	m.AttachmentIDs = fromCQLUUIDs(attachmentIDs)
	return &m, nil
}

// Page reads up to limit messages strictly older than (beforeAt,
// beforeID), newest first. The compound bound is a single clustering
// range read within the channel partition.
func (s *Messages) Page(ctx context.Context, channelID uuid.UUID, beforeAt time.Time, beforeID int64, limit int) ([]model.Message, error) {
	iter := s.session.Query(`SELECT created_at, id, author_id, content, updated_at, attachment_ids
		FROM messages WHERE channel_id = ? AND (created_at, id) < (?, ?) LIMIT ?`,
		cqlUUID(channelID), beforeAt, beforeID, limit).
		WithContext(ctx).Iter()

	var out []model.Message
	var createdAt, updatedAt time.Time
	var id int64
	var authorID gocql.UUID
	var content string
	var attachmentIDs []gocql.UUID
	for iter.Scan(&createdAt, &id, &authorID, &content, &updatedAt, &attachmentIDs) {
		out = append(out, model.Message{
			ID:            id,
			ChannelID:     channelID,
			AuthorID:      uuid.UUID(authorID),
			Content:       content,
			AttachmentIDs: fromCQLUUIDs(attachmentIDs),
			CreatedAt:     createdAt,
			UpdatedAt:     updatedAt,
		})
		attachmentIDs = nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExistsBefore is the hasNext existence probe: true iff at least one
// message is strictly older than the bound.
func (s *Messages) ExistsBefore(ctx context.Context, channelID uuid.UUID, beforeAt time.Time, beforeID int64) (bool, error) {
	var id int64
	err := s.session.Query(`SELECT id FROM messages WHERE channel_id = ? AND (created_at, id) < (?, ?) LIMIT 1`,
		cqlUUID(channelID), beforeAt, beforeID).
		WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LastCreatedAt returns the newest message timestamp in the channel,
// or ok=false for an empty channel.
func (s *Messages) LastCreatedAt(ctx context.Context, channelID uuid.UUID) (time.Time, bool, error) {
	var createdAt time.Time
	err := s.session.Query(`SELECT created_at FROM messages WHERE channel_id = ? LIMIT 1`,
		cqlUUID(channelID)).
		WithContext(ctx).Scan(&createdAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return createdAt, true, nil
}

// UpdateContent edits the text without touching the ordering key.
func (s *Messages) UpdateContent(ctx context.Context, m *model.Message, newContent string, at time.Time) error {
	return s.session.Query(`UPDATE messages SET content = ?, updated_at = ?
		WHERE channel_id = ? AND created_at = ? AND id = ?`,
		newContent, at, cqlUUID(m.ChannelID), m.CreatedAt, m.ID).
		WithContext(ctx).Exec()
}

func (s *Messages) Delete(ctx context.Context, m *model.Message) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM messages WHERE channel_id = ? AND created_at = ? AND id = ?`,
		cqlUUID(m.ChannelID), m.CreatedAt, m.ID)
	batch.Query(`DELETE FROM messages_by_id WHERE id = ?`, m.ID)
	return s.session.ExecuteBatch(batch)
}
