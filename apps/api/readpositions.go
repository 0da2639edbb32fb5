package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/chat"
	"github.com/mahaj/chatcore/pkg/errs"
)

type readPositionHandler struct {
	tracker *chat.ReadTracker
}

type createReadPositionRequest struct {
	UserID     uuid.UUID `json:"userId"`
	ChannelID  uuid.UUID `json:"channelId"`
	LastReadAt time.Time `json:"lastReadAt"`
}

// create joins the user to the channel by writing the first read
// position for the pair.
func (h *readPositionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReadPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.InvalidArgument("invalid request body"))
		return
	}
	if req.LastReadAt.IsZero() {
		req.LastReadAt = time.Now()
	}
	rp, err := h.tracker.Create(r.Context(), req.UserID, req.ChannelID, req.LastReadAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rp)
}

type updateReadPositionRequest struct {
	NewLastReadAt time.Time `json:"newLastReadAt"`
}

func (h *readPositionHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, channelID, err := pairParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateReadPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.InvalidArgument("invalid request body"))
		return
	}
	if req.NewLastReadAt.IsZero() {
		writeError(w, errs.InvalidArgument("newLastReadAt is required"))
		return
	}
	rp, err := h.tracker.Update(r.Context(), userID, channelID, req.NewLastReadAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rp)
}

// delete removes the pair, i.e. the user leaves the channel.
func (h *readPositionHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, channelID, err := pairParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.tracker.Delete(r.Context(), userID, channelID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *readPositionHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, errs.InvalidArgument("userId query parameter is required"))
		return
	}
	positions, err := h.tracker.AllByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func pairParams(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	q := r.URL.Query()
	userID, err := uuid.Parse(q.Get("userId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errs.InvalidArgument("userId query parameter is required")
	}
	channelID, err := uuid.Parse(q.Get("channelId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errs.InvalidArgument("channelId query parameter is required")
	}
	return userID, channelID, nil
}
