package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mack/direct-chat/internal/config"
	"github.com/mack/direct-chat/internal/domain"
	"github.com/mack/direct-chat/internal/mailer"
	"github.com/mack/direct-chat/internal/repository"
)

var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInvalidEmail             = errors.New("invalid email address")
	ErrWeakPassword             = errors.New("password must be at least 6 characters")
	ErrEmailTaken               = errors.New("email already registered")
	ErrEmailNotVerified         = errors.New("email is not verified")
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidDisplayName       = errors.New("display name must not be empty")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
)

const minPasswordLength = 6

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokenRepo   repository.TokenRepository
	mailer      mailer.Mailer
	cfg         *config.Config
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, tokenRepo repository.TokenRepository, m mailer.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokenRepo:   tokenRepo,
		mailer:      m,
		cfg:         cfg,
	}
}

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// Register creates an account with a display name derived from the email's
// local part, marks it online, and sends a verification mail. The account
// stays unverified until the mailed token is consumed.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  string(hashedPassword),
		DisplayName:   displayNameFromEmail(email),
		EmailVerified: false,
		Online:        true,
		LastSeen:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Registration succeeds even when the mail cannot go out; the user can
	// request a new verification mail later.
	if err := s.issueVerification(ctx, user); err != nil {
		log.Printf("ERROR [auth.Register] failed to send verification mail to %s: %v", user.Email, err)
	}

	return s.generateTokens(ctx, user)
}

// Login authenticates by email and password. Unverified accounts are refused
// before any session is created, so a failed login leaves no trace.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if err := s.userRepo.UpdatePresence(ctx, user.ID, true, time.Now()); err != nil {
		return nil, err
	}
	user.Online = true

	return s.generateTokens(ctx, user)
}

// Logout marks the user offline and revokes their sessions. The presence
// update is best-effort: a failure is logged and the logout still proceeds,
// so the user is never blocked from leaving.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdatePresence(ctx, userID, false, time.Now()); err != nil {
		log.Printf("ERROR [auth.Logout] failed to update presence for %s: %v", userID, err)
	}
	return s.sessionRepo.DeleteByUserID(ctx, userID)
}

// SetPresence records an online/offline transition observed by the realtime
// layer. Presence is only as fresh as the last transition; there is no
// heartbeat.
func (s *AuthService) SetPresence(ctx context.Context, userID uuid.UUID, online bool) error {
	return s.userRepo.UpdatePresence(ctx, userID, online, time.Now())
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	vt, err := s.tokenRepo.GetByToken(ctx, token, domain.TokenPurposeVerifyEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidVerificationToken
		}
		return err
	}
	if vt.Expired() {
		_ = s.tokenRepo.Delete(ctx, vt.ID)
		return ErrInvalidVerificationToken
	}

	user, err := s.userRepo.GetByID(ctx, vt.UserID)
	if err != nil {
		return err
	}

	user.EmailVerified = true
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return s.tokenRepo.Delete(ctx, vt.ID)
}

// ResendVerification issues a fresh token and mail for an unverified account.
// Already-verified accounts are a no-op.
func (s *AuthService) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}

	if err := s.tokenRepo.DeleteByUserID(ctx, user.ID, domain.TokenPurposeVerifyEmail); err != nil {
		return err
	}
	return s.issueVerification(ctx, user)
}

// RequestPasswordReset mails a single-use reset code to the account.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.tokenRepo.DeleteByUserID(ctx, user.ID, domain.TokenPurposeResetPassword); err != nil {
		return err
	}

	vt := &domain.VerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		Purpose:   domain.TokenPurposeResetPassword,
		ExpiresAt: time.Now().Add(s.cfg.ResetTokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.tokenRepo.Create(ctx, vt); err != nil {
		return err
	}

	return s.mailer.SendPasswordReset(user.Email, vt.Token)
}

// ConfirmPasswordReset consumes a reset code, replaces the password, and
// revokes every existing session for the account.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	vt, err := s.tokenRepo.GetByToken(ctx, token, domain.TokenPurposeResetPassword)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if vt.Expired() {
		_ = s.tokenRepo.Delete(ctx, vt.ID)
		return ErrInvalidResetToken
	}

	user, err := s.userRepo.GetByID(ctx, vt.UserID)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.tokenRepo.Delete(ctx, vt.ID); err != nil {
		return err
	}

	return s.sessionRepo.DeleteByUserID(ctx, user.ID)
}

// UpdateDisplayName changes the profile display name.
func (s *AuthService) UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) (*domain.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrInvalidDisplayName
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.DisplayName = displayName
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) issueVerification(ctx context.Context, user *domain.User) error {
	vt := &domain.VerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		Purpose:   domain.TokenPurposeVerifyEmail,
		ExpiresAt: time.Now().Add(s.cfg.VerificationTokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.tokenRepo.Create(ctx, vt); err != nil {
		return err
	}
	return s.mailer.SendVerification(user.Email, vt.Token)
}

func (s *AuthService) generateTokens(ctx context.Context, user *domain.User) (*AuthResult, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.New().String()
	hashedRefresh, err := bcrypt.GenerateFromPassword([]byte(refreshToken), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// Delete old sessions
	_ = s.sessionRepo.DeleteByUserID(ctx, user.ID)

	session := &domain.UserSession{
		ID:               uuid.New(),
		UserID:           user.ID,
		RefreshTokenHash: string(hashedRefresh),
		ExpiresAt:        time.Now().Add(7 * 24 * time.Hour), // 7 days
		CreatedAt:        time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"name":  user.DisplayName,
		"exp":   time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return &claims, nil
	}

	return nil, errors.New("invalid token")
}

func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
