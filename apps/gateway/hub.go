package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/presence"
)

// Hub tracks connected clients and turns socket activity into two side
// effects: presence touches in redis and message events on the kafka
// topic. The socket never pushes chat messages back out; clients read
// history over the API.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool // user_id -> connections
	publish    chan *model.MessageEvent
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	producer   *kafka.Writer
	presence   *presence.Store
}

func NewHub(kafkaBrokers []string, topic string, pres *presence.Store) *Hub {
	producer := &kafka.Writer{
		Addr:     kafka.TCP(kafkaBrokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		publish:    make(chan *model.MessageEvent),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		producer:   producer,
		presence:   pres,
	}
}

// touch refreshes the user's liveness timestamp. Called on connect and
// on every pong.
func (h *Hub) touch(userID uuid.UUID) {
	if err := h.presence.Touch(context.Background(), userID, time.Now()); err != nil {
		logger.Warn("presence touch failed", zap.String("userId", userID.String()), zap.Error(err))
	}
}

func (h *Hub) Run() {
	defer h.producer.Close()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()

			h.touch(client.userID)
			logger.Info("client connected", zap.String("userId", client.userID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.done)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			h.mu.Unlock()
			logger.Info("client disconnected", zap.String("userId", client.userID.String()))

		case event := <-h.publish:
			value, err := json.Marshal(event)
			if err != nil {
				logger.Error("event marshal failed", zap.Error(err))
				continue
			}
			err = h.producer.WriteMessages(context.Background(), kafka.Message{
				Key:   []byte(event.ChannelID.String()),
				Value: value,
				Time:  time.Now(),
			})
			if err != nil {
				logger.Error("kafka publish failed",
					zap.String("channelId", event.ChannelID.String()), zap.Error(err))
				continue
			}
			logger.Debug("message event published",
				zap.String("channelId", event.ChannelID.String()),
				zap.String("authorId", event.AuthorID.String()))
		}
	}
}
