package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/presence"
	"github.com/mahaj/chatcore/pkg/storage"
)

// Users is the identity layer: account lifecycle, profile images and
// the liveness touch that drives presence.
type Users struct {
	hydrator
	blob storage.Blob
}

func NewUsers(users UserStore, attachments AttachmentStore, pres PresenceStore, blob storage.Blob) *Users {
	return &Users{
		hydrator: hydrator{users: users, attachments: attachments, presence: pres, now: time.Now},
		blob:     blob,
	}
}

func (s *Users) Create(ctx context.Context, username, email string, profile *AttachmentUpload) (*model.UserView, error) {
	if username == "" {
		return nil, errs.InvalidArgument("username must not be empty")
	}
	if email == "" {
		return nil, errs.InvalidArgument("email must not be empty")
	}

	now := s.now()
	u := &model.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if profile != nil {
		att := model.Attachment{
			ID:          uuid.New(),
			FileName:    profile.FileName,
			Size:        int64(len(profile.Bytes)),
			ContentType: profile.ContentType,
			CreatedAt:   now,
		}
		if err := s.blob.Put(ctx, att.ID, profile.Bytes); err != nil {
			return nil, err
		}
		if err := s.attachments.Insert(ctx, &att); err != nil {
			return nil, err
		}
		u.ProfileID = &att.ID
	}

	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	// A freshly created account counts as active.
	if err := s.presence.Touch(ctx, u.ID, now); err != nil {
		logger.Warn("presence touch failed", zap.String("userId", u.ID.String()), zap.Error(err))
	}

	logger.Info("user created", zap.String("userId", u.ID.String()), zap.String("username", username))
	view := s.userView(*u, map[uuid.UUID]time.Time{u.ID: now}, now)
	return &view, nil
}

func (s *Users) Find(ctx context.Context, id uuid.UUID) (*model.UserView, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lastActive, err := s.presence.LastActive(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	view := s.userView(*u, lastActive, s.now())
	return &view, nil
}

func (s *Users) All(ctx context.Context) ([]model.UserView, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	lastActive, err := s.presence.LastActive(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]model.UserView, len(users))
	for i, u := range users {
		out[i] = s.userView(u, lastActive, now)
	}
	return out, nil
}

// Update changes profile fields. Empty strings leave the current value
// in place; a renamed username or email is re-claimed by the store, so
// a value another user holds surfaces as CONFLICT and the old value
// frees up for reuse.
func (s *Users) Update(ctx context.Context, id uuid.UUID, newUsername, newEmail string, profile *AttachmentUpload) (*model.UserView, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prevUsername, prevEmail := u.Username, u.Email
	if newUsername != "" {
		u.Username = newUsername
	}
	if newEmail != "" {
		u.Email = newEmail
	}
	now := s.now()
	if profile != nil {
		att := model.Attachment{
			ID:          uuid.New(),
			FileName:    profile.FileName,
			Size:        int64(len(profile.Bytes)),
			ContentType: profile.ContentType,
			CreatedAt:   now,
		}
		if err := s.blob.Put(ctx, att.ID, profile.Bytes); err != nil {
			return nil, err
		}
		if err := s.attachments.Insert(ctx, &att); err != nil {
			return nil, err
		}
		u.ProfileID = &att.ID
	}
	u.UpdatedAt = now
	if err := s.users.Update(ctx, u, prevUsername, prevEmail); err != nil {
		return nil, err
	}
	lastActive, err := s.presence.LastActive(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	view := s.userView(*u, lastActive, now)
	return &view, nil
}

func (s *Users) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, u)
}

// Touch marks the user active now; the gateway calls this on every
// heartbeat.
func (s *Users) Touch(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	return s.presence.Touch(ctx, id, s.now())
}

// Online reports the user's current derived state; exposed for the
// status endpoint.
func (s *Users) Online(ctx context.Context, id uuid.UUID) (bool, error) {
	lastActive, err := s.presence.LastActive(ctx, []uuid.UUID{id})
	if err != nil {
		return false, err
	}
	return presence.Online(lastActive[id], s.now()), nil
}
