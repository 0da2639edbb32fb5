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

// ReadPositions keeps one row per (user, channel) pair in two tables:
// read_positions partitioned by user (visible-channel resolution) and
// read_positions_by_channel partitioned by channel (participant
// listing, cascade delete). Every write touches both in one logged
// batch.
type ReadPositions struct {
	session *db.Session
}

func NewReadPositions(session *db.Session) *ReadPositions {
	return &ReadPositions{session: session}
}

// Insert claims the pair with an LWT so two concurrent joins cannot
// both land. Conditional statements cannot span partitions in one
// batch, so the user-keyed row is the claim and the channel-keyed
// mirror follows unconditionally.
func (s *ReadPositions) Insert(ctx context.Context, rp *model.ReadPosition) error {
	applied, err := s.session.Query(
		`INSERT INTO read_positions (user_id, channel_id, last_read_at, created_at) VALUES (?, ?, ?, ?) IF NOT EXISTS`,
		cqlUUID(rp.UserID), cqlUUID(rp.ChannelID), rp.LastReadAt, rp.CreatedAt).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return errs.Conflict("read position already exists").
			WithDetail("userId", rp.UserID.String()).
			WithDetail("channelId", rp.ChannelID.String())
	}
	return s.session.Query(
		`INSERT INTO read_positions_by_channel (channel_id, user_id, last_read_at, created_at) VALUES (?, ?, ?, ?)`,
		cqlUUID(rp.ChannelID), cqlUUID(rp.UserID), rp.LastReadAt, rp.CreatedAt).
		WithContext(ctx).Exec()
}

func (s *ReadPositions) Find(ctx context.Context, userID, channelID uuid.UUID) (*model.ReadPosition, error) {
	rp := model.ReadPosition{UserID: userID, ChannelID: channelID}
	err := s.session.Query(`SELECT last_read_at, created_at FROM read_positions WHERE user_id = ? AND channel_id = ?`,
		cqlUUID(userID), cqlUUID(channelID)).
		WithContext(ctx).Scan(&rp.LastReadAt, &rp.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errs.NotFound("read position", userID.String()+"/"+channelID.String())
	}
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *ReadPositions) UpdateLastReadAt(ctx context.Context, userID, channelID uuid.UUID, lastReadAt time.Time) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`UPDATE read_positions SET last_read_at = ? WHERE user_id = ? AND channel_id = ?`,
		lastReadAt, cqlUUID(userID), cqlUUID(channelID))
	batch.Query(`UPDATE read_positions_by_channel SET last_read_at = ? WHERE channel_id = ? AND user_id = ?`,
		lastReadAt, cqlUUID(channelID), cqlUUID(userID))
	return s.session.ExecuteBatch(batch)
}

func (s *ReadPositions) Delete(ctx context.Context, userID, channelID uuid.UUID) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM read_positions WHERE user_id = ? AND channel_id = ?`,
		cqlUUID(userID), cqlUUID(channelID))
	batch.Query(`DELETE FROM read_positions_by_channel WHERE channel_id = ? AND user_id = ?`,
		cqlUUID(channelID), cqlUUID(userID))
	return s.session.ExecuteBatch(batch)
}

func (s *ReadPositions) AllByUser(ctx context.Context, userID uuid.UUID) ([]model.ReadPosition, error) {
	iter := s.session.Query(`SELECT channel_id, last_read_at, created_at FROM read_positions WHERE user_id = ?`,
		cqlUUID(userID)).
		WithContext(ctx).Iter()

	var out []model.ReadPosition
	rp := model.ReadPosition{UserID: userID}
	var channelID gocql.UUID
	for iter.Scan(&channelID, &rp.LastReadAt, &rp.CreatedAt) {
		rp.ChannelID = uuid.UUID(channelID)
		out = append(out, rp)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReadPositions) AllByChannel(ctx context.Context, channelID uuid.UUID) ([]model.ReadPosition, error) {
	iter := s.session.Query(`SELECT user_id, last_read_at, created_at FROM read_positions_by_channel WHERE channel_id = ?`,
		cqlUUID(channelID)).
		WithContext(ctx).Iter()

	var out []model.ReadPosition
	rp := model.ReadPosition{ChannelID: channelID}
	var userID gocql.UUID
	for iter.Scan(&userID, &rp.LastReadAt, &rp.CreatedAt) {
		rp.UserID = uuid.UUID(userID)
		out = append(out, rp)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}
