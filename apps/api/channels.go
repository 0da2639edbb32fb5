package main

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/chat"
	"github.com/mahaj/chatcore/pkg/errs"
)

type channelHandler struct {
	channels *chat.Channels
}

type createPublicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *channelHandler) createPublic(w http.ResponseWriter, r *http.Request) {
	var req createPublicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.InvalidArgument("invalid request body"))
		return
	}
	view, err := h.channels.CreatePublic(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

type createPrivateRequest struct {
	ParticipantIDs []uuid.UUID `json:"participantIds"`
}

func (h *channelHandler) createPrivate(w http.ResponseWriter, r *http.Request) {
	var req createPrivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.InvalidArgument("invalid request body"))
		return
	}
	view, err := h.channels.CreatePrivate(r.Context(), req.ParticipantIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *channelHandler) find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed channel id"))
		return
	}
	view, err := h.channels.Find(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *channelHandler) listVisible(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, errs.InvalidArgument("userId query parameter is required"))
		return
	}
	views, err := h.channels.FindVisibleToUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type updateChannelRequest struct {
	NewName        string `json:"newName"`
	NewDescription string `json:"newDescription"`
}

func (h *channelHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed channel id"))
		return
	}
	var req updateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.InvalidArgument("invalid request body"))
		return
	}
	view, err := h.channels.Update(r.Context(), id, req.NewName, req.NewDescription)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *channelHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed channel id"))
		return
	}
	if err := h.channels.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
