// Package chat is the domain layer: cursor pagination over the message
// log, channel lifecycle with read-position consistency, and
// presence-aware hydration of responses. Services depend on the small
// store interfaces below; pkg/store provides the ScyllaDB
// implementations and tests substitute in-memory ones.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/model"
)

type MessageStore interface {
	Insert(ctx context.Context, m *model.Message, attachments []model.Attachment) error
	FindByID(ctx context.Context, id int64) (*model.Message, error)
	Page(ctx context.Context, channelID uuid.UUID, beforeAt time.Time, beforeID int64, limit int) ([]model.Message, error)
	ExistsBefore(ctx context.Context, channelID uuid.UUID, beforeAt time.Time, beforeID int64) (bool, error)
	LastCreatedAt(ctx context.Context, channelID uuid.UUID) (time.Time, bool, error)
	UpdateContent(ctx context.Context, m *model.Message, newContent string, at time.Time) error
	Delete(ctx context.Context, m *model.Message) error
}

type ChannelStore interface {
	Insert(ctx context.Context, ch *model.Channel) error
	InsertPrivate(ctx context.Context, ch *model.Channel, positions []model.ReadPosition) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Channel, error)
	UpdateInfo(ctx context.Context, id uuid.UUID, name, description string) error
	All(ctx context.Context) ([]model.Channel, error)
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

type ReadPositionStore interface {
	Insert(ctx context.Context, rp *model.ReadPosition) error
	Find(ctx context.Context, userID, channelID uuid.UUID) (*model.ReadPosition, error)
	UpdateLastReadAt(ctx context.Context, userID, channelID uuid.UUID, lastReadAt time.Time) error
	Delete(ctx context.Context, userID, channelID uuid.UUID) error
	AllByUser(ctx context.Context, userID uuid.UUID) ([]model.ReadPosition, error)
	AllByChannel(ctx context.Context, channelID uuid.UUID) ([]model.ReadPosition, error)
}

type UserStore interface {
	Insert(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error)
	All(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User, prevUsername, prevEmail string) error
	Delete(ctx context.Context, u *model.User) error
}

type AttachmentStore interface {
	Insert(ctx context.Context, att *model.Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PresenceStore resolves last-active timestamps. Online state is never
// read from here; it is derived per request.
type PresenceStore interface {
	Touch(ctx context.Context, userID uuid.UUID, at time.Time) error
	LastActive(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
}
