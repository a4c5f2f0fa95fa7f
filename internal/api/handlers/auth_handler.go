package handlers

import (
	"net/http"

	middleware "github.com/markdave123-py/ChatbotX/internal/api/middlewares"
	"github.com/markdave123-py/ChatbotX/internal/services"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// CurrentUser returns the stored record of the authenticated caller.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

// principalID writes a 401 and returns false when no principal is attached.
func principalID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		RespondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return p.UserID, true
}
