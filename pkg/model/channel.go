package model

import (
	"time"

	"github.com/google/uuid"
)

type ChannelKind string

const (
	KindPublic  ChannelKind = "PUBLIC"
	KindPrivate ChannelKind = "PRIVATE"
)

// Channel is either PUBLIC (named, described, visible to everyone) or
// PRIVATE (anonymous, membership tracked via ReadPosition rows).
type Channel struct {
	ID          uuid.UUID   `json:"id"`
	Kind        ChannelKind `json:"kind"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ReadPosition records how far a user has read in a channel. Its
// existence for a (user, channel) pair is also the sole membership
// evidence for private channels.
type ReadPosition struct {
	UserID     uuid.UUID `json:"userId"`
	ChannelID  uuid.UUID `json:"channelId"`
	LastReadAt time.Time `json:"lastReadAt"`
	CreatedAt  time.Time `json:"createdAt"`
}
