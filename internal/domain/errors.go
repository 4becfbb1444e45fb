package domain

import "errors"

// Messaging invariants
var (
	ErrEmptyMessage     = errors.New("message text is empty")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotMessageSender = errors.New("only the sender can delete a message")
	ErrSelfConversation = errors.New("sender and receiver must be different users")
)
