package main

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/chat"
	"github.com/mahaj/chatcore/pkg/errs"
)

type userHandler struct {
	users *chat.Users
}

// create accepts multipart form data: username, email and an optional
// profile file part.
func (h *userHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		writeError(w, errs.InvalidArgument("expected multipart form data"))
		return
	}

	profile, err := profilePart(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.users.Create(r.Context(), r.FormValue("username"), r.FormValue("email"), profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	views, err := h.users.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *userHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed user id"))
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		writeError(w, errs.InvalidArgument("expected multipart form data"))
		return
	}

	profile, err := profilePart(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.users.Update(r.Context(), id, r.FormValue("newUsername"), r.FormValue("newEmail"), profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *userHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed user id"))
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// online reports the user's derived presence state.
func (h *userHandler) online(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed user id"))
		return
	}
	online, err := h.users.Online(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"online": online})
}

// touch refreshes the user's last-active timestamp to now.
func (h *userHandler) touch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errs.InvalidArgument("malformed user id"))
		return
	}
	if err := h.users.Touch(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func profilePart(r *http.Request) (*chat.AttachmentUpload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["profile"]) == 0 {
		return nil, nil
	}
	header := r.MultipartForm.File["profile"][0]
	file, err := header.Open()
	if err != nil {
		return nil, errs.InvalidArgument("unreadable profile part")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentLen))
	if err != nil {
		return nil, errs.InvalidArgument("unreadable profile part")
	}
	return &chat.AttachmentUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Bytes:       data,
	}, nil
}
