package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/logger"
)

// Creates the keyspace and every table. Run once before starting the
// services.
func main() {
	_ = godotenv.Load()

	hostsStr := os.Getenv("SCYLLA_HOSTS")
	if hostsStr == "" {
		hostsStr = "localhost:9042"
	}
	hosts := strings.Split(hostsStr, ",")

	keyspace := os.Getenv("SCYLLA_KEYSPACE")
	if keyspace == "" {
		keyspace = "chatcore"
	}

	sysSession, err := db.NewSession(hosts, "system")
	if err != nil {
		logger.Fatal("scylla connect failed", zap.Error(err))
	}
	if err := db.EnsureKeyspace(sysSession, keyspace); err != nil {
		logger.Fatal("keyspace create failed", zap.Error(err))
	}
	sysSession.Close()

	session, err := db.NewSession(hosts, keyspace)
	if err != nil {
		logger.Fatal("scylla connect failed", zap.Error(err))
	}
	defer session.Close()

	if err := db.EnsureSchema(session); err != nil {
		logger.Fatal("schema create failed", zap.Error(err))
	}
	logger.Info("schema ready", zap.String("keyspace", keyspace))
}
