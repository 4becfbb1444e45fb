package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"gorm.io/gorm"

	"github.com/mack/direct-chat/internal/domain"
	"github.com/mack/direct-chat/internal/repository"
)

var ErrReceiverNotFound = errors.New("receiver not found")

type ChatService struct {
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
}

func NewChatService(userRepo repository.UserRepository, messageRepo repository.MessageRepository) *ChatService {
	return &ChatService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
	}
}

// ConversationMessage is a message tagged with its sender's directory entry,
// ready for rendering.
type ConversationMessage struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	SenderID    uuid.UUID `json:"senderId"`
	ReceiverID  uuid.UUID `json:"receiverId"`
	SenderEmail string    `json:"senderEmail"`
	SenderName  string    `json:"senderName"`
	Timestamp   time.Time `json:"timestamp"`
}

// Send stores a message with a server-assigned timestamp. Whitespace-only
// text is rejected before anything touches the store.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, domain.ErrSelfConversation
	}

	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}

	message := &domain.Message{
		ID:         xid.New().String(),
		Text:       text,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Timestamp:  time.Now().UTC(),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// GetMessage looks a message up by id.
func (s *ChatService) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return message, nil
}

// Delete removes a message by id. Authorship is enforced here, at the storage
// boundary, not just in whichever client hides the control.
func (s *ChatService) Delete(ctx context.Context, userID uuid.UUID, messageID string) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrMessageNotFound
		}
		return err
	}

	if message.SenderID != userID {
		return domain.ErrNotMessageSender
	}

	return s.messageRepo.Delete(ctx, messageID)
}

// Conversation fetches both directions of the exchange between two users and
// returns the merged, ordered view. The full two-direction fetch runs on
// every call; nothing is patched incrementally.
func (s *ChatService) Conversation(ctx context.Context, selfID, peerID uuid.UUID) ([]ConversationMessage, error) {
	self, err := s.userRepo.GetByID(ctx, selfID)
	if err != nil {
		return nil, err
	}
	peer, err := s.userRepo.GetByID(ctx, peerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}

	sent, err := s.messageRepo.GetBetween(ctx, selfID, peerID)
	if err != nil {
		return nil, err
	}
	received, err := s.messageRepo.GetBetween(ctx, peerID, selfID)
	if err != nil {
		return nil, err
	}

	return BuildConversation(self, peer, sent, received), nil
}

// BuildConversation tags each message with its sender's email and display
// name, concatenates both directions, and sorts ascending by timestamp. Equal
// timestamps (and the zero timestamp) fall back to the message id, which is
// an xid and therefore creation-ordered, so the result is deterministic
// across refetches.
func BuildConversation(self, peer *domain.User, sent, received []*domain.Message) []ConversationMessage {
	merged := make([]ConversationMessage, 0, len(sent)+len(received))
	for _, m := range sent {
		merged = append(merged, tagMessage(m, self))
	}
	for _, m := range received {
		merged = append(merged, tagMessage(m, peer))
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].Timestamp.Before(merged[j].Timestamp)
		}
		return merged[i].ID < merged[j].ID
	})

	return merged
}

func tagMessage(m *domain.Message, sender *domain.User) ConversationMessage {
	return ConversationMessage{
		ID:          m.ID,
		Text:        m.Text,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		SenderEmail: sender.Email,
		SenderName:  sender.DisplayName,
		Timestamp:   m.Timestamp,
	}
}
