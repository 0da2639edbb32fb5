package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a channel's append-only log. CreatedAt is
// assigned once at insert and, together with ID, is the ordering key;
// content edits only move UpdatedAt.
type Message struct {
	ID            int64       `json:"id"`
	ChannelID     uuid.UUID   `json:"channelId"`
	AuthorID      uuid.UUID   `json:"authorId"`
	Content       string      `json:"content"`
	AttachmentIDs []uuid.UUID `json:"attachmentIds,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// MessageEvent is the wire format published to Kafka by external
// producers and consumed by the ingest service.
type MessageEvent struct {
	ChannelID uuid.UUID `json:"channel_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
}
