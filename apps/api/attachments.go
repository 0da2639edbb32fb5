package main

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/storage"
	"github.com/mahaj/chatcore/pkg/store"
)

type attachmentHandler struct {
	attachments *store.Attachments
	blob        storage.Blob
}

func (h *attachmentHandler) find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed attachment id"))
		return
	}
	att, err := h.attachments.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

// batch serves metadata for a comma-separated id list.
func (h *attachmentHandler) batch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		writeError(w, errs.InvalidArgument("ids query parameter is required"))
		return
	}

	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			writeError(w, errs.InvalidArgument("malformed attachment id").WithDetail("id", part))
			return
		}
		ids = append(ids, id)
	}

	found, err := h.attachments.FindByIDs(r.Context(), ids)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]model.Attachment, 0, len(found))
	for _, id := range ids {
		if att, ok := found[id]; ok {
			out = append(out, att)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// download hands the request to the blob backend: the local backend
// streams the bytes, the S3 backend redirects to a presigned URL.
func (h *attachmentHandler) download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed attachment id"))
		return
	}
	att, err := h.attachments.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.blob.Download(w, r, *att); err != nil {
		writeError(w, err)
	}
}
