package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mack/direct-chat/internal/api/handlers"
	"github.com/mack/direct-chat/internal/api/middleware"
	"github.com/mack/direct-chat/internal/config"
	"github.com/mack/direct-chat/internal/service"
	"github.com/mack/direct-chat/internal/websocket"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, hub)
	directoryHandler := handlers.NewDirectoryHandler(services.Directory)
	chatHandler := handlers.NewChatHandler(services.Chat, hub)
	profileHandler := handlers.NewProfileHandler(services.Auth, hub)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/verify-email", authHandler.VerifyEmail)
			r.Post("/reset-password", authHandler.RequestPasswordReset)
			r.Post("/reset-password/confirm", authHandler.ConfirmPasswordReset)

			// Routes that need a session but not a verified email, so a
			// freshly registered user can still act from the verification
			// screen.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
				r.Post("/resend-verification", authHandler.ResendVerification)
			})
		})

		// The chat surface: session AND verified email required.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Use(middleware.RequireVerified(services.Auth))

			r.Get("/users", directoryHandler.List)

			r.Get("/conversations/{peerId}", chatHandler.GetConversation)
			r.Post("/messages", chatHandler.Send)
			r.Delete("/messages/{id}", chatHandler.Delete)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.Get)
				r.Put("/", profileHandler.Update)
			})
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
