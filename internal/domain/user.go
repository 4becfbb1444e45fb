package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string    `json:"-" gorm:"not null"`
	DisplayName   string    `json:"displayName" gorm:"not null"`
	EmailVerified bool      `json:"emailVerified" gorm:"not null;default:false"`
	Online        bool      `json:"online" gorm:"not null;default:false"`
	LastSeen      time.Time `json:"lastSeen"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type UserSession struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	RefreshTokenHash string    `json:"-" gorm:"not null"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"`
}

type TokenPurpose string

const (
	TokenPurposeVerifyEmail   TokenPurpose = "verify_email"
	TokenPurposeResetPassword TokenPurpose = "reset_password"
)

// VerificationToken backs both the email-verification and the password-reset
// flows. A token is single-use: consuming it deletes the row.
type VerificationToken struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID    `json:"userId" gorm:"type:uuid;not null;index"`
	Token     string       `json:"-" gorm:"uniqueIndex;not null"`
	Purpose   TokenPurpose `json:"purpose" gorm:"not null"`
	ExpiresAt time.Time    `json:"expiresAt" gorm:"not null"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (t *VerificationToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}
