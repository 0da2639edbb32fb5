package model

import (
	"time"

	"github.com/google/uuid"
)

// UserView is a user as embedded in responses. Online is recomputed at
// hydration time from the presence store, never persisted.
type UserView struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	ProfileID *uuid.UUID `json:"profileId,omitempty"`
	Online    bool       `json:"online"`
}

type MessageView struct {
	ID          int64        `json:"id"`
	ChannelID   uuid.UUID    `json:"channelId"`
	Content     string       `json:"content"`
	Author      UserView     `json:"author"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type ChannelView struct {
	ID            uuid.UUID   `json:"id"`
	Kind          ChannelKind `json:"kind"`
	Name          string      `json:"name,omitempty"`
	Description   string      `json:"description,omitempty"`
	Participants  []UserView  `json:"participants"`
	LastMessageAt *time.Time  `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// MessagePage is one slice of a channel's message log, newest first.
// NextCursor is opaque to clients; empty means the log is exhausted.
type MessagePage struct {
	Content    []MessageView `json:"content"`
	NextCursor string        `json:"nextCursor,omitempty"`
	Size       int           `json:"size"`
	HasNext    bool          `json:"hasNext"`
}
