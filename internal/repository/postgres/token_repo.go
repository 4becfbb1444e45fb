package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mack/direct-chat/internal/domain"
)

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *tokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *domain.VerificationToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	var vt domain.VerificationToken
	err := r.db.WithContext(ctx).First(&vt, "token = ? AND purpose = ?", token, purpose).Error
	if err != nil {
		return nil, err
	}
	return &vt, nil
}

func (r *tokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.VerificationToken{}, "id = ?", id).Error
}

func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) error {
	return r.db.WithContext(ctx).Delete(&domain.VerificationToken{}, "user_id = ? AND purpose = ?", userID, purpose).Error
}
