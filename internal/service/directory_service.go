package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mack/direct-chat/internal/domain"
	"github.com/mack/direct-chat/internal/repository"
)

type DirectoryService struct {
	userRepo repository.UserRepository
}

func NewDirectoryService(userRepo repository.UserRepository) *DirectoryService {
	return &DirectoryService{userRepo: userRepo}
}

// List returns every registered user except the caller, ordered by email
// ascending. Each call produces a complete snapshot; callers replace, never
// merge.
func (s *DirectoryService) List(ctx context.Context, selfID uuid.UUID) ([]*domain.User, error) {
	return s.userRepo.ListExcept(ctx, selfID)
}

// FilterUsers is a pure, case-insensitive substring match on email or display
// name. An empty query returns the input list unchanged.
func FilterUsers(users []*domain.User, query string) []*domain.User {
	if query == "" {
		return users
	}

	q := strings.ToLower(query)
	filtered := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(strings.ToLower(u.DisplayName), q) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}
