package websocket

import (
	"encoding/json"
	"time"

	"github.com/mack/direct-chat/internal/service"
)

type MessageType string

const (
	// Client to Server
	MessageTypeWatchDirectory      MessageType = "WATCH_DIRECTORY"
	MessageTypeWatchConversation   MessageType = "WATCH_CONVERSATION"
	MessageTypeUnwatchConversation MessageType = "UNWATCH_CONVERSATION"

	// Server to Client
	MessageTypeDirectorySnapshot    MessageType = "DIRECTORY_SNAPSHOT"
	MessageTypeConversationSnapshot MessageType = "CONVERSATION_SNAPSHOT"
	MessageTypeError                MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type WatchConversationPayload struct {
	PeerID string `json:"peerId"`
}

// Server to Client payloads

// DirectoryUser is one entry of a directory snapshot.
type DirectoryUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Online      bool      `json:"online"`
	LastSeen    time.Time `json:"lastSeen"`
}

// DirectorySnapshotPayload carries the full user list, excluding the
// receiving client. Each snapshot replaces the previous one.
type DirectorySnapshotPayload struct {
	Users []DirectoryUser `json:"users"`
}

// ConversationSnapshotPayload carries the full merged conversation with one
// peer. Each snapshot replaces the previous one.
type ConversationSnapshotPayload struct {
	PeerID   string                        `json:"peerId"`
	Messages []service.ConversationMessage `json:"messages"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
