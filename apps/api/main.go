package main

import (
	"context"
	"net/http"
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

	scyllaHosts := strings.Split(env("SCYLLA_HOSTS", "localhost:9042"), ",")
	keyspace := env("SCYLLA_KEYSPACE", "chatcore")
	redisAddr := env("REDIS_ADDR", "localhost:6379")
	listenAddr := env("API_ADDR", ":8081")

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

	messages := store.NewMessages(session)
	channels := store.NewChannels(session)
	readPositions := store.NewReadPositions(session)
	users := store.NewUsers(session)
	attachments := store.NewAttachments(session)
	pres := presence.NewStore(redisAddr)

	pager := chat.NewPager(channels, messages, users, attachments, pres)
	channelSvc := chat.NewChannels(channels, readPositions, messages, users, attachments, pres)
	readTracker := chat.NewReadTracker(readPositions, channels, users)
	messageSvc := chat.NewMessages(messages, channels, users, attachments, pres, blob, node)
	userSvc := chat.NewUsers(users, attachments, pres, blob)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", loginHandler)

	channelH := &channelHandler{channels: channelSvc}
	mux.Handle("POST /api/channels/public", authRequired(channelH.createPublic))
	mux.Handle("POST /api/channels/private", authRequired(channelH.createPrivate))
	mux.Handle("GET /api/channels", authRequired(channelH.listVisible))
	mux.Handle("GET /api/channels/{id}", authRequired(channelH.find))
	mux.Handle("PATCH /api/channels/{id}", authRequired(channelH.update))
	mux.Handle("DELETE /api/channels/{id}", authRequired(channelH.delete))

	messageH := &messageHandler{pager: pager, messages: messageSvc}
	mux.Handle("GET /api/messages", authRequired(messageH.page))
	mux.Handle("GET /api/messages/{id}", authRequired(messageH.find))
	mux.Handle("POST /api/messages", authRequired(messageH.create))
	mux.Handle("PATCH /api/messages/{id}", authRequired(messageH.update))
	mux.Handle("DELETE /api/messages/{id}", authRequired(messageH.delete))

	readH := &readPositionHandler{tracker: readTracker}
	mux.Handle("POST /api/readStatuses", authRequired(readH.create))
	mux.Handle("PATCH /api/readStatuses", authRequired(readH.update))
	mux.Handle("DELETE /api/readStatuses", authRequired(readH.delete))
	mux.Handle("GET /api/readStatuses", authRequired(readH.listByUser))

	userH := &userHandler{users: userSvc}
	mux.HandleFunc("POST /api/users", userH.create)
	mux.Handle("GET /api/users", authRequired(userH.list))
	mux.Handle("PATCH /api/users/{id}", authRequired(userH.update))
	mux.Handle("DELETE /api/users/{id}", authRequired(userH.delete))
	mux.Handle("POST /api/users/{id}/touch", authRequired(userH.touch))
	mux.Handle("GET /api/users/{id}/online", authRequired(userH.online))

	attachmentH := &attachmentHandler{attachments: attachments, blob: blob}
	mux.Handle("GET /api/binaryContents", authRequired(attachmentH.batch))
	mux.Handle("GET /api/binaryContents/{id}", authRequired(attachmentH.find))
	mux.Handle("GET /api/binaryContents/{id}/download", authRequired(attachmentH.download))

	logger.Info("api service listening", zap.String("addr", listenAddr))
	if err := http.ListenAndServe(listenAddr, corsMiddleware(mux)); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}
