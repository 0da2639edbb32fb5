package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/logger"
	"github.com/mahaj/chatcore/pkg/presence"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	kafkaBrokers := strings.Split(env("KAFKA_BROKERS", "localhost:19092"), ",")
	kafkaTopic := env("KAFKA_TOPIC", "chat-messages")
	redisAddr := env("REDIS_ADDR", "localhost:6379")
	listenAddr := env("GATEWAY_ADDR", ":8080")

	pres := presence.NewStore(redisAddr)
	hub := NewHub(kafkaBrokers, kafkaTopic, pres)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})

	logger.Info("gateway service listening", zap.String("addr", listenAddr))
	if err := http.ListenAndServe(listenAddr, nil); err != nil {
		logger.Fatal("gateway server stopped", zap.Error(err))
	}
}
