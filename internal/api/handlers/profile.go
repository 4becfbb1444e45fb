package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mack/direct-chat/internal/api/middleware"
	"github.com/mack/direct-chat/internal/service"
	"github.com/mack/direct-chat/internal/websocket"
)

type ProfileHandler struct {
	authService *service.AuthService
	hub         *websocket.Hub
}

func NewProfileHandler(authService *service.AuthService, hub *websocket.Hub) *ProfileHandler {
	return &ProfileHandler{authService: authService, hub: hub}
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, toUserResponse(user))
}

// Update changes the display name. The directory broadcasts the change so
// peer lists pick up the new name without a refresh.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.authService.UpdateDisplayName(r.Context(), userID, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDisplayName):
			http.Error(w, "Display name must not be empty", http.StatusBadRequest)
		case errors.Is(err, service.ErrUserNotFound):
			http.Error(w, "User not found", http.StatusNotFound)
		default:
			log.Printf("ERROR [profile.Update] failed to update profile: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.hub.NotifyUserChanged(user.ID)

	writeJSON(w, toUserResponse(user))
}
