package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/chat"
	"github.com/mahaj/chatcore/pkg/errs"
)

const (
	defaultPageSize  = 50
	maxPageSize      = 200
	maxMultipartMem  = 32 << 20
	maxAttachmentLen = 10 << 20
)

type messageHandler struct {
	pager    *chat.Pager
	messages *chat.Messages
}

// page serves the cursor-paginated message history, newest first.
func (h *messageHandler) page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	channelID, err := uuid.Parse(q.Get("channelId"))
	if err != nil {
		writeError(w, errs.InvalidArgument("channelId query parameter is required"))
		return
	}

	pageSize := defaultPageSize
	if raw := q.Get("pageSize"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, errs.InvalidArgument("pageSize must be an integer"))
			return
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	page, err := h.pager.FetchPage(r.Context(), channelID, q.Get("cursor"), pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// create accepts multipart form data: content, channelId, authorId and
// zero or more attachment file parts.
func (h *messageHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		writeError(w, errs.InvalidArgument("expected multipart form data"))
		return
	}

	channelID, err := uuid.Parse(r.FormValue("channelId"))
	if err != nil {
		writeError(w, errs.InvalidArgument("channelId is required"))
		return
	}
	authorID, err := uuid.Parse(r.FormValue("authorId"))
	if err != nil {
		writeError(w, errs.InvalidArgument("authorId is required"))
		return
	}

	var uploads []chat.AttachmentUpload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["attachments"] {
			file, err := header.Open()
			if err != nil {
				writeError(w, errs.InvalidArgument("unreadable attachment part"))
				return
			}
			data, err := io.ReadAll(io.LimitReader(file, maxAttachmentLen))
			file.Close()
			if err != nil {
				writeError(w, errs.InvalidArgument("unreadable attachment part"))
				return
			}
			uploads = append(uploads, chat.AttachmentUpload{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Bytes:       data,
			})
		}
	}

	view, err := h.messages.Create(r.Context(), channelID, authorID, r.FormValue("content"), uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *messageHandler) find(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed message id"))
		return
	}
	view, err := h.messages.Find(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type updateMessageRequest struct {
	NewContent string `json:"newContent"`
}

func (h *messageHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed message id"))
		return
	}
	var req updateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.InvalidArgument("invalid request body"))
		return
	}
	view, err := h.messages.Update(r.Context(), id, req.NewContent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *messageHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed message id"))
		return
	}
	if err := h.messages.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
