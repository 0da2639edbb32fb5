package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mahaj/chatcore/pkg/auth"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PATCH, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if r.Method == http.MethodOptions {
			return
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, errorResponse{
		Timestamp: time.Now(),
		Code:      "UNAUTHORIZED",
		Message:   message,
		Status:    http.StatusUnauthorized,
	})
}

// authRequired validates the bearer token and stores the claims in the
// request context.
func authRequired(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			unauthorized(w, "authorization header required")
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := auth.ValidateToken(token)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), auth.UserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
