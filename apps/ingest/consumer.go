package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/chat"
	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/model"
)

// messageCreator is the slice of the message service the consumer
// needs.
type messageCreator interface {
	Create(ctx context.Context, channelID, authorID uuid.UUID, content string, uploads []chat.AttachmentUpload) (*model.MessageView, error)
}

// Consumer drains the message topic and persists each event through
// the message service, which assigns the snowflake id and the
// timestamp derived from it.
type Consumer struct {
	reader   *kafka.Reader
	messages messageCreator
}

func NewConsumer(brokers []string, topic, groupID string, messages messageCreator) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: r, messages: messages}
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("kafka read failed, retrying", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		c.handleEvent(ctx, m.Value)
	}
}

func (c *Consumer) handleEvent(ctx context.Context, value []byte) {
	var event model.MessageEvent
	if err := json.Unmarshal(value, &event); err != nil {
		logger.Warn("skipping malformed event", zap.Error(err))
		return
	}
	if event.ChannelID == uuid.Nil || event.AuthorID == uuid.Nil {
		logger.Warn("skipping event without channel or author")
		return
	}

	view, err := c.messages.Create(ctx, event.ChannelID, event.AuthorID, event.Content, nil)
	if err != nil {
		// Unknown channel or author means a stale event; anything else
		// is worth a retry on the next delivery.
		logger.Error("event persist failed",
			zap.String("channelId", event.ChannelID.String()), zap.Error(err))
		return
	}
	logger.Debug("event persisted", zap.Int64("messageId", view.ID))
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
