package main

import (
	"encoding/json"
	"net/http"

	"github.com/mahaj/chatcore/pkg/auth"
	"github.com/mahaj/chatcore/pkg/errs"
)

type loginRequest struct {
	UserID string `json:"userId"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// loginHandler issues a JWT for the given user id. There is no
// credential check; identity is trusted at this boundary.
func loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.InvalidArgument("invalid request body"))
		return
	}
	if req.UserID == "" {
		writeError(w, errs.InvalidArgument("userId is required"))
		return
	}

	token, err := auth.GenerateToken(req.UserID)
	if err != nil {
		writeError(w, errs.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
