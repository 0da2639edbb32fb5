package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/logger"
)

// errorResponse is the body every failed request gets.
type errorResponse struct {
	Timestamp time.Time      `json:"timestamp"`
	Code      errs.Code      `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Status    int            `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Error("response encode failed", zap.Error(err))
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)

	resp := errorResponse{
		Timestamp: time.Now(),
		Code:      code,
		Status:    status,
	}

	var domainErr *errs.Error
	if errors.As(err, &domainErr) {
		resp.Message = domainErr.Message
		resp.Details = domainErr.Details
	} else {
		resp.Message = "internal error"
		logger.Error("unhandled error at API boundary", zap.Error(err))
	}

	writeJSON(w, status, resp)
}
