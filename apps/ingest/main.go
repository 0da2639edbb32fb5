package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/chat"
	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/presence"
	"github.com/mahaj/chatcore/pkg/snowflake"
	"github.com/mahaj/chatcore/pkg/storage"
	"github.com/mahaj/chatcore/pkg/store"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	brokers := strings.Split(env("KAFKA_BROKERS", "localhost:19092"), ",")
	topic := env("KAFKA_TOPIC", "chat-messages")
	groupID := env("KAFKA_GROUP_ID", "ingest-service-group")
	scyllaHosts := strings.Split(env("SCYLLA_HOSTS", "localhost:9042"), ",")
	keyspace := env("SCYLLA_KEYSPACE", "chatcore")
	redisAddr := env("REDIS_ADDR", "localhost:6379")

	session, err := db.NewSession(scyllaHosts, keyspace)
	if err != nil {
		logger.Fatal("scylla connect failed", zap.Error(err))
	}
	defer session.Close()

	blob, err := storage.FromEnv(context.Background())
	if err != nil {
		logger.Fatal("blob storage init failed", zap.Error(err))
	}

	node, err := snowflake.NodeFromEnv()
	if err != nil {
		logger.Fatal("snowflake node init failed", zap.Error(err))
	}

	messageSvc := chat.NewMessages(
		store.NewMessages(session),
		store.NewChannels(session),
		store.NewUsers(session),
		store.NewAttachments(session),
		presence.NewStore(redisAddr),
		blob,
		node,
	)

	consumer := NewConsumer(brokers, topic, groupID, messageSvc)
	defer consumer.Close()

	logger.Info("ingest service consuming", zap.String("topic", topic))
	consumer.Consume(context.Background())
}
