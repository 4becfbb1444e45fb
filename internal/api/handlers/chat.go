package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mack/direct-chat/internal/api/middleware"
	"github.com/mack/direct-chat/internal/domain"
	"github.com/mack/direct-chat/internal/service"
	"github.com/mack/direct-chat/internal/websocket"
)

type ChatHandler struct {
	chatService *service.ChatService
	hub         *websocket.Hub
}

func NewChatHandler(chatService *service.ChatService, hub *websocket.Hub) *ChatHandler {
	return &ChatHandler{chatService: chatService, hub: hub}
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

type ConversationResponse struct {
	PeerID   string                        `json:"peerId"`
	Messages []service.ConversationMessage `json:"messages"`
}

// GetConversation returns the full merged conversation with one peer.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	peerID, err := uuid.Parse(chi.URLParam(r, "peerId"))
	if err != nil {
		http.Error(w, "Invalid peer id", http.StatusBadRequest)
		return
	}

	messages, err := h.chatService.Conversation(r.Context(), userID, peerID)
	if err != nil {
		if errors.Is(err, service.ErrReceiverNotFound) {
			http.Error(w, "Peer not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR [chat.GetConversation] failed to fetch conversation: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ConversationResponse{
		PeerID:   peerID.String(),
		Messages: messages,
	})
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		http.Error(w, "Invalid receiver id", http.StatusBadRequest)
		return
	}

	message, err := h.chatService.Send(r.Context(), userID, receiverID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			http.Error(w, "Message text is empty", http.StatusBadRequest)
		case errors.Is(err, domain.ErrSelfConversation):
			http.Error(w, "Cannot message yourself", http.StatusBadRequest)
		case errors.Is(err, service.ErrReceiverNotFound):
			http.Error(w, "Receiver not found", http.StatusNotFound)
		default:
			log.Printf("ERROR [chat.Send] failed to send message: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.hub.NotifyMessageChanged(message.SenderID, message.ReceiverID)

	writeJSON(w, message)
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	messageID := chi.URLParam(r, "id")

	message, err := h.chatService.GetMessage(r.Context(), messageID)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			http.Error(w, "Message not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.chatService.Delete(r.Context(), userID, messageID); err != nil {
		switch {
		case errors.Is(err, domain.ErrMessageNotFound):
			http.Error(w, "Message not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrNotMessageSender):
			http.Error(w, "Only the sender can delete a message", http.StatusForbidden)
		default:
			log.Printf("ERROR [chat.Delete] failed to delete message: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.hub.NotifyMessageChanged(message.SenderID, message.ReceiverID)

	writeJSON(w, map[string]bool{"deleted": true})
}
