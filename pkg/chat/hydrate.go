package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/presence"
)

// hydrator shapes responses after a query has selected its rows:
// authors, attachment metadata and liveness are each resolved with one
// batch call for the whole result set, then stitched in.
type hydrator struct {
	users       UserStore
	attachments AttachmentStore
	presence    PresenceStore
	now         func() time.Time
}

func (h hydrator) userView(u model.User, lastActive map[uuid.UUID]time.Time, now time.Time) model.UserView {
	return model.UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		ProfileID: u.ProfileID,
		Online:    presence.Online(lastActive[u.ID], now),
	}
}

// userViews resolves a set of user ids into presence-aware views.
func (h hydrator) userViews(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.UserView, error) {
	users, err := h.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lastActive, err := h.presence.LastActive(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := h.now()
	out := make(map[uuid.UUID]model.UserView, len(users))
	for id, u := range users {
		out[id] = h.userView(u, lastActive, now)
	}
	return out, nil
}

// messageViews hydrates a page of messages. Authors and attachments
// are deduplicated across the page before the batch lookups.
func (h hydrator) messageViews(ctx context.Context, msgs []model.Message) ([]model.MessageView, error) {
	authorSet := make(map[uuid.UUID]struct{})
	var authorIDs []uuid.UUID
	var attachmentIDs []uuid.UUID
	for _, m := range msgs {
		if _, ok := authorSet[m.AuthorID]; !ok {
			authorSet[m.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, m.AuthorID)
		}
		attachmentIDs = append(attachmentIDs, m.AttachmentIDs...)
	}

	authors, err := h.userViews(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	attachments, err := h.attachments.FindByIDs(ctx, attachmentIDs)
	if err != nil {
		return nil, err
	}

	out := make([]model.MessageView, 0, len(msgs))
	for _, m := range msgs {
		atts := make([]model.Attachment, 0, len(m.AttachmentIDs))
		for _, id := range m.AttachmentIDs {
			if att, ok := attachments[id]; ok {
				atts = append(atts, att)
			}
		}
		author, ok := authors[m.AuthorID]
		if !ok {
			// Author row gone (deleted user); keep the message with a
			// bare identity reference.
			author = model.UserView{ID: m.AuthorID}
		}
		out = append(out, model.MessageView{
			ID:          m.ID,
			ChannelID:   m.ChannelID,
			Content:     m.Content,
			Author:      author,
			Attachments: atts,
			CreatedAt:   m.CreatedAt,
			UpdatedAt:   m.UpdatedAt,
		})
	}
	return out, nil
}
