package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/common/models"
	"github.com/umtracker/platform/pkg/gateway/respond"
	"github.com/umtracker/platform/pkg/identity"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password, requestedRole string) (models.User, error)
}

type TokenIssuer interface {
	IssueToken(user models.User) (string, error)
}

type AuthHandler struct {
	service     Authenticator
	tokenSigner TokenIssuer
}

func NewAuthHandler(service Authenticator, tokenSigner TokenIssuer) *AuthHandler {
	return &AuthHandler{service: service, tokenSigner: tokenSigner}
}

func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.Username == "" || req.Password == "" || !identity.ValidRole(req.RequestedRole) {
		respond.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password, req.RequestedRole)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			logger.Log.WithField("username", req.Username).Warn("authentication failed")
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		logger.Log.WithError(err).Error("authentication lookup failed")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	token, err := h.tokenSigner.IssueToken(user)
	if err != nil {
		logger.Log.WithError(err).Error("failed issuing token")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	respond.JSON(w, http.StatusOK, models.LoginResponse{Token: token})
}
