package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/model"
)

// ReadTracker manages per-(user, channel) read positions. Creating a
// position is joining the channel; deleting it is leaving.
type ReadTracker struct {
	readPositions ReadPositionStore
	channels      ChannelStore
	users         UserStore
	now           func() time.Time
}

func NewReadTracker(readPositions ReadPositionStore, channels ChannelStore, users UserStore) *ReadTracker {
	return &ReadTracker{
		readPositions: readPositions,
		channels:      channels,
		users:         users,
		now:           time.Now,
	}
}

// Create adds a read position for the pair; at most one may exist.
func (s *ReadTracker) Create(ctx context.Context, userID, channelID uuid.UUID, lastReadAt time.Time) (*model.ReadPosition, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.channels.FindByID(ctx, channelID); err != nil {
		return nil, err
	}
	if _, err := s.readPositions.Find(ctx, userID, channelID); err == nil {
		return nil, errs.Conflict("read position already exists").
			WithDetail("userId", userID.String()).
			WithDetail("channelId", channelID.String())
	} else if !errors.Is(err, &errs.Error{Code: errs.CodeNotFound}) {
		return nil, err
	}

	rp := &model.ReadPosition{
		UserID:     userID,
		ChannelID:  channelID,
		LastReadAt: lastReadAt,
		CreatedAt:  s.now(),
	}
	if err := s.readPositions.Insert(ctx, rp); err != nil {
		return nil, err
	}
	logger.Info("read position created",
		zap.String("userId", userID.String()), zap.String("channelId", channelID.String()))
	return rp, nil
}

// Update moves the read marker. Joining must precede reading: a
// missing pair is NOT_FOUND, never an implicit join. Last write wins;
// a timestamp earlier than the current one is accepted, the client
// owns its own marker.
func (s *ReadTracker) Update(ctx context.Context, userID, channelID uuid.UUID, newLastReadAt time.Time) (*model.ReadPosition, error) {
	rp, err := s.readPositions.Find(ctx, userID, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.readPositions.UpdateLastReadAt(ctx, userID, channelID, newLastReadAt); err != nil {
		return nil, err
	}
	rp.LastReadAt = newLastReadAt
	return rp, nil
}

// Delete removes the pair, i.e. the user leaves the channel.
func (s *ReadTracker) Delete(ctx context.Context, userID, channelID uuid.UUID) error {
	if _, err := s.readPositions.Find(ctx, userID, channelID); err != nil {
		return err
	}
	return s.readPositions.Delete(ctx, userID, channelID)
}

func (s *ReadTracker) AllByUser(ctx context.Context, userID uuid.UUID) ([]model.ReadPosition, error) {
	return s.readPositions.AllByUser(ctx, userID)
}
