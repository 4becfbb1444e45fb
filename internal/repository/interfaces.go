package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mack/direct-chat/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// UpdatePresence touches only the online flag and last-seen time.
	UpdatePresence(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error
	// ListExcept returns every user except the given one, ordered by email
	// ascending.
	ListExcept(ctx context.Context, id uuid.UUID) ([]*domain.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *domain.VerificationToken) error
	GetByToken(ctx context.Context, token string, purpose domain.TokenPurpose) (*domain.VerificationToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// GetBetween returns the messages sent by senderID to receiverID (one
	// direction only), ordered by timestamp then id ascending.
	GetBetween(ctx context.Context, senderID, receiverID uuid.UUID) ([]*domain.Message, error)
	Delete(ctx context.Context, id string) error
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Token   TokenRepository
	Message MessageRepository
}
