package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/snowflake"
	"github.com/mahaj/chatcore/pkg/storage"
)

// AttachmentUpload is one attachment arriving with a message or a
// profile image with a user.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Bytes       []byte
}

// Messages handles message creation, edits and deletes. Pagination
// lives in Pager.
type Messages struct {
	hydrator
	messages MessageStore
	channels ChannelStore
	blob     storage.Blob
	ids      *snowflake.Node
}

func NewMessages(messages MessageStore, channels ChannelStore, users UserStore,
	attachments AttachmentStore, pres PresenceStore, blob storage.Blob, ids *snowflake.Node) *Messages {
	return &Messages{
		hydrator: hydrator{users: users, attachments: attachments, presence: pres, now: time.Now},
		messages: messages,
		channels: channels,
		blob:     blob,
		ids:      ids,
	}
}

// Create appends a message. Attachment bytes are written to the blob
// store first; a storage failure aborts the whole creation so no
// message row ever references unwritten bytes. The message timestamp
// is derived from its snowflake id, so (created_at, id) order never
// disagrees with id order.
func (s *Messages) Create(ctx context.Context, channelID, authorID uuid.UUID, content string, uploads []AttachmentUpload) (*model.MessageView, error) {
	if content == "" && len(uploads) == 0 {
		return nil, errs.InvalidArgument("message requires content or attachments")
	}
	if _, err := s.channels.FindByID(ctx, channelID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, authorID); err != nil {
		return nil, err
	}

	attachments := make([]model.Attachment, 0, len(uploads))
	attachmentIDs := make([]uuid.UUID, 0, len(uploads))
	createdAt := s.now()
	for _, up := range uploads {
		att := model.Attachment{
			ID:          uuid.New(),
			FileName:    up.FileName,
			Size:        int64(len(up.Bytes)),
			ContentType: up.ContentType,
			CreatedAt:   createdAt,
		}
		if err := s.blob.Put(ctx, att.ID, up.Bytes); err != nil {
			logger.Error("attachment write failed, aborting message creation",
				zap.String("channelId", channelID.String()), zap.Error(err))
			return nil, err
		}
		attachments = append(attachments, att)
		attachmentIDs = append(attachmentIDs, att.ID)
	}

	id := s.ids.Generate()
	m := &model.Message{
		ID:            id,
		ChannelID:     channelID,
		AuthorID:      authorID,
		Content:       content,
		AttachmentIDs: attachmentIDs,
		CreatedAt:     time.UnixMilli(snowflake.Millis(id)),
		UpdatedAt:     time.UnixMilli(snowflake.Millis(id)),
	}
	if err := s.messages.Insert(ctx, m, attachments); err != nil {
		return nil, err
	}

	logger.Info("message created",
		zap.Int64("messageId", m.ID),
		zap.String("channelId", channelID.String()),
		zap.Int("attachments", len(attachments)))
	return s.viewOne(ctx, m)
}

func (s *Messages) Find(ctx context.Context, id int64) (*model.MessageView, error) {
	m, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.viewOne(ctx, m)
}

// Update edits the content; created_at is the ordering key and never
// moves.
func (s *Messages) Update(ctx context.Context, id int64, newContent string) (*model.MessageView, error) {
	if newContent == "" {
		return nil, errs.InvalidArgument("message content must not be empty")
	}
	m, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if err := s.messages.UpdateContent(ctx, m, newContent, at); err != nil {
		return nil, err
	}
	m.Content = newContent
	m.UpdatedAt = at
	return s.viewOne(ctx, m)
}

func (s *Messages) Delete(ctx context.Context, id int64) error {
	m, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.messages.Delete(ctx, m)
}

func (s *Messages) viewOne(ctx context.Context, m *model.Message) (*model.MessageView, error) {
	views, err := s.messageViews(ctx, []model.Message{*m})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
