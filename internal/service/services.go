package service

import (
	"github.com/mack/direct-chat/internal/config"
	"github.com/mack/direct-chat/internal/mailer"
	"github.com/mack/direct-chat/internal/repository"
)

type Services struct {
	Auth      *AuthService
	Directory *DirectoryService
	Chat      *ChatService
}

func NewServices(repos *repository.Repositories, m mailer.Mailer, cfg *config.Config) *Services {
	return &Services{
		Auth:      NewAuthService(repos.User, repos.Session, repos.Token, m, cfg),
		Directory: NewDirectoryService(repos.User),
		Chat:      NewChatService(repos.User, repos.Message),
	}
}
