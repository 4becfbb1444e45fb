package handlers

import (
	"log"
	"net/http"

	"github.com/mack/direct-chat/internal/api/middleware"
	"github.com/mack/direct-chat/internal/service"
)

type DirectoryHandler struct {
	directoryService *service.DirectoryService
}

func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

type DirectoryResponse struct {
	Users []UserResponse `json:"users"`
}

// List returns every other registered user, ordered by email. The optional
// ?q= parameter applies a case-insensitive substring filter on email and
// display name.
func (h *DirectoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := h.directoryService.List(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [directory.List] failed to list users: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	users = service.FilterUsers(users, r.URL.Query().Get("q"))

	resp := DirectoryResponse{Users: make([]UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}

	writeJSON(w, resp)
}
