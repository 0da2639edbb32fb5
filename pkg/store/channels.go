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

type Channels struct {
	session *db.Session
}

func NewChannels(session *db.Session) *Channels {
	return &Channels{session: session}
}

func (s *Channels) Insert(ctx context.Context, ch *model.Channel) error {
	return s.session.Query(`INSERT INTO channels (id, kind, name, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		cqlUUID(ch.ID), string(ch.Kind), ch.Name, ch.Description, ch.CreatedAt).
		WithContext(ctx).Exec()
}

// InsertPrivate writes the channel and one read-position row pair per
// participant in a single logged batch, so membership is never
// observable half-created.
func (s *Channels) InsertPrivate(ctx context.Context, ch *model.Channel, positions []model.ReadPosition) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO channels (id, kind, name, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		cqlUUID(ch.ID), string(ch.Kind), ch.Name, ch.Description, ch.CreatedAt)
	for _, rp := range positions {
		batch.Query(`INSERT INTO read_positions (user_id, channel_id, last_read_at, created_at) VALUES (?, ?, ?, ?)`,
			cqlUUID(rp.UserID), cqlUUID(rp.ChannelID), rp.LastReadAt, rp.CreatedAt)
		batch.Query(`INSERT INTO read_positions_by_channel (channel_id, user_id, last_read_at, created_at) VALUES (?, ?, ?, ?)`,
			cqlUUID(rp.ChannelID), cqlUUID(rp.UserID), rp.LastReadAt, rp.CreatedAt)
	}
	return s.session.ExecuteBatch(batch)
}

func (s *Channels) FindByID(ctx context.Context, id uuid.UUID) (*model.Channel, error) {
	ch := model.Channel{ID: id}
	var kind string
	err := s.session.Query(`SELECT kind, name, description, created_at FROM channels WHERE id = ?`,
		cqlUUID(id)).
		WithContext(ctx).Scan(&kind, &ch.Name, &ch.Description, &ch.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errs.NotFound("channel", id)
	}
	if err != nil {
		return nil, err
	}
	ch.Kind = model.ChannelKind(kind)
	return &ch, nil
}

func (s *Channels) UpdateInfo(ctx context.Context, id uuid.UUID, name, description string) error {
	return s.session.Query(`UPDATE channels SET name = ?, description = ? WHERE id = ?`,
		name, description, cqlUUID(id)).
		WithContext(ctx).Exec()
}

func (s *Channels) All(ctx context.Context) ([]model.Channel, error) {
	iter := s.session.Query(`SELECT id, kind, name, description, created_at FROM channels`).
		WithContext(ctx).Iter()

	var out []model.Channel
	var ch model.Channel
	var id gocql.UUID
	var kind string
	for iter.Scan(&id, &kind, &ch.Name, &ch.Description, &ch.CreatedAt) {
		ch.ID = uuid.UUID(id)
		ch.Kind = model.ChannelKind(kind)
		out = append(out, ch)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCascade removes the channel, its whole message partition, the
// id-lookup rows for those messages, and every read-position row pair,
// in one logged batch. A reader sees the channel fully present or
// fully gone.
func (s *Channels) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	// Collect message ids for the by-id lookup cleanup.
	var messageIDs []int64
	iter := s.session.Query(`SELECT id FROM messages WHERE channel_id = ?`, cqlUUID(id)).
		WithContext(ctx).Iter()
	var msgID int64
	for iter.Scan(&msgID) {
		messageIDs = append(messageIDs, msgID)
	}
	if err := iter.Close(); err != nil {
		return err
	}

	// Collect member user ids to reach their per-user partitions.
	var userIDs []gocql.UUID
	iter = s.session.Query(`SELECT user_id FROM read_positions_by_channel WHERE channel_id = ?`, cqlUUID(id)).
		WithContext(ctx).Iter()
	var userID gocql.UUID
	for iter.Scan(&userID) {
		userIDs = append(userIDs, userID)
	}
	if err := iter.Close(); err != nil {
		return err
	}

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM messages WHERE channel_id = ?`, cqlUUID(id))
	for _, msgID := range messageIDs {
		batch.Query(`DELETE FROM messages_by_id WHERE id = ?`, msgID)
	}
	batch.Query(`DELETE FROM read_positions_by_channel WHERE channel_id = ?`, cqlUUID(id))
	for _, userID := range userIDs {
		batch.Query(`DELETE FROM read_positions WHERE user_id = ? AND channel_id = ?`, userID, cqlUUID(id))
	}
	batch.Query(`DELETE FROM channels WHERE id = ?`, cqlUUID(id))
	return s.session.ExecuteBatch(batch)
}
