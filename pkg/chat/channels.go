package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/model"
)

// Channels owns the channel lifecycle and the membership rules tied to
// read positions: private membership exists exactly while a
// read-position row does.
type Channels struct {
	hydrator
	channels      ChannelStore
	readPositions ReadPositionStore
	messages      MessageStore
}

func NewChannels(channels ChannelStore, readPositions ReadPositionStore, messages MessageStore,
	users UserStore, attachments AttachmentStore, pres PresenceStore) *Channels {
	return &Channels{
		hydrator:      hydrator{users: users, attachments: attachments, presence: pres, now: time.Now},
		channels:      channels,
		readPositions: readPositions,
		messages:      messages,
	}
}

func (s *Channels) CreatePublic(ctx context.Context, name, description string) (*model.ChannelView, error) {
	if name == "" {
		return nil, errs.InvalidArgument("public channel requires a name")
	}
	ch := &model.Channel{
		ID:          uuid.New(),
		Kind:        model.KindPublic,
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}
	if err := s.channels.Insert(ctx, ch); err != nil {
		return nil, err
	}
	logger.Info("public channel created",
		zap.String("channelId", ch.ID.String()), zap.String("name", name))
	return s.view(ctx, ch)
}

// CreatePrivate creates the channel and one read position per
// participant as a unit. Any unknown participant fails the whole call;
// partial membership is never persisted.
func (s *Channels) CreatePrivate(ctx context.Context, participantIDs []uuid.UUID) (*model.ChannelView, error) {
	if len(participantIDs) == 0 {
		return nil, errs.InvalidArgument("private channel requires at least one participant")
	}

	unique := make([]uuid.UUID, 0, len(participantIDs))
	seen := make(map[uuid.UUID]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	found, err := s.users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, id := range unique {
		if _, ok := found[id]; !ok {
			return nil, errs.NotFound("user", id)
		}
	}

	ch := &model.Channel{
		ID:        uuid.New(),
		Kind:      model.KindPrivate,
		CreatedAt: s.now(),
	}
	positions := make([]model.ReadPosition, len(unique))
	for i, userID := range unique {
		positions[i] = model.ReadPosition{
			UserID:     userID,
			ChannelID:  ch.ID,
			LastReadAt: ch.CreatedAt,
			CreatedAt:  ch.CreatedAt,
		}
	}
	if err := s.channels.InsertPrivate(ctx, ch, positions); err != nil {
		return nil, err
	}
	logger.Info("private channel created",
		zap.String("channelId", ch.ID.String()), zap.Int("participants", len(unique)))
	return s.view(ctx, ch)
}

func (s *Channels) Find(ctx context.Context, id uuid.UUID) (*model.ChannelView, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, ch)
}

// FindVisibleToUser resolves every channel the user can see: all
// public channels plus the channels the user holds a read position in.
func (s *Channels) FindVisibleToUser(ctx context.Context, userID uuid.UUID) ([]model.ChannelView, error) {
	positions, err := s.readPositions.AllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	member := make(map[uuid.UUID]struct{}, len(positions))
	for _, rp := range positions {
		member[rp.ChannelID] = struct{}{}
	}

	all, err := s.channels.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.ChannelView, 0, len(all))
	for i := range all {
		ch := &all[i]
		if ch.Kind != model.KindPublic {
			if _, ok := member[ch.ID]; !ok {
				continue
			}
		}
		view, err := s.view(ctx, ch)
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

// Update renames or re-describes a public channel. Private channels
// are immutable; the check runs before any mutation.
func (s *Channels) Update(ctx context.Context, id uuid.UUID, newName, newDescription string) (*model.ChannelView, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch.Kind == model.KindPrivate {
		return nil, errs.PrivateChannelImmutable(id)
	}
	if newName == "" {
		return nil, errs.InvalidArgument("public channel requires a name")
	}
	if err := s.channels.UpdateInfo(ctx, id, newName, newDescription); err != nil {
		return nil, err
	}
	ch.Name = newName
	ch.Description = newDescription
	logger.Info("channel updated", zap.String("channelId", id.String()))
	return s.view(ctx, ch)
}

// Delete cascades: the channel, all its messages and all read
// positions referencing it go in one atomic unit.
func (s *Channels) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.channels.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.channels.DeleteCascade(ctx, id); err != nil {
		return err
	}
	logger.Info("channel deleted", zap.String("channelId", id.String()))
	return nil
}

func (s *Channels) view(ctx context.Context, ch *model.Channel) (*model.ChannelView, error) {
	view := &model.ChannelView{
		ID:           ch.ID,
		Kind:         ch.Kind,
		Name:         ch.Name,
		Description:  ch.Description,
		Participants: []model.UserView{},
		CreatedAt:    ch.CreatedAt,
	}

	if lastAt, ok, err := s.messages.LastCreatedAt(ctx, ch.ID); err != nil {
		return nil, err
	} else if ok {
		view.LastMessageAt = &lastAt
	}

	if ch.Kind == model.KindPrivate {
		positions, err := s.readPositions.AllByChannel(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, len(positions))
		for i, rp := range positions {
			ids[i] = rp.UserID
		}
		views, err := s.userViews(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if v, ok := views[id]; ok {
				view.Participants = append(view.Participants, v)
			}
		}
	}
	return view, nil
}
