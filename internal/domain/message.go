package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users. Messages are immutable after
// creation; the only mutation is deletion by the sender. IDs are xid strings,
// which sort by creation time, so (Timestamp, ID) gives a total order over a
// conversation even when two messages land in the same timestamp.
type Message struct {
	ID         string    `json:"id" gorm:"primary_key"`
	Text       string    `json:"text" gorm:"not null"`
	SenderID   uuid.UUID `json:"senderId" gorm:"type:uuid;not null;index:idx_messages_sender_receiver"`
	ReceiverID uuid.UUID `json:"receiverId" gorm:"type:uuid;not null;index:idx_messages_sender_receiver"`
	Timestamp  time.Time `json:"timestamp" gorm:"not null;autoCreateTime"`
}
