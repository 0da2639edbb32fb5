package chat

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/model"
)

// Pager is the cursor pagination engine. A page is selected by a
// strict compound-key range read, hasNext comes from a dedicated
// existence probe (never over-fetch), and hydration runs batched over
// exactly the selected rows.
type Pager struct {
	hydrator
	channels ChannelStore
	messages MessageStore
}

func NewPager(channels ChannelStore, messages MessageStore, users UserStore,
	attachments AttachmentStore, pres PresenceStore) *Pager {
	return &Pager{
		hydrator: hydrator{users: users, attachments: attachments, presence: pres, now: time.Now},
		channels: channels,
		messages: messages,
	}
}

// FetchPage returns up to pageSize messages older than the cursor,
// newest first. An empty cursor starts from the present instant.
func (p *Pager) FetchPage(ctx context.Context, channelID uuid.UUID, cursor string, pageSize int) (*model.MessagePage, error) {
	if pageSize <= 0 {
		return nil, errs.InvalidArgument("pageSize must be positive")
	}
	if _, err := p.channels.FindByID(ctx, channelID); err != nil {
		return nil, err
	}

	beforeAt := p.now()
	beforeID := int64(math.MaxInt64)
	if cursor != "" {
		var err error
		beforeAt, beforeID, err = decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
	}

	msgs, err := p.messages.Page(ctx, channelID, beforeAt, beforeID, pageSize)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		// Empty is a valid outcome, not an error.
		return &model.MessagePage{Content: []model.MessageView{}, Size: 0, HasNext: false}, nil
	}

	oldest := msgs[len(msgs)-1]
	hasNext, err := p.messages.ExistsBefore(ctx, channelID, oldest.CreatedAt, oldest.ID)
	if err != nil {
		return nil, err
	}

	views, err := p.messageViews(ctx, msgs)
	if err != nil {
		return nil, err
	}

	logger.Debug("message page served",
		zap.String("channelId", channelID.String()),
		zap.Int("size", len(views)),
		zap.Bool("hasNext", hasNext))

	return &model.MessagePage{
		Content:    views,
		NextCursor: encodeCursor(oldest.CreatedAt, oldest.ID),
		Size:       len(views),
		HasNext:    hasNext,
	}, nil
}
