package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shopkeeper-app/shopkeeper-be/internal/api/handlers"
	"github.com/shopkeeper-app/shopkeeper-be/internal/auth"
	"github.com/shopkeeper-app/shopkeeper-be/internal/services"
	"github.com/shopkeeper-app/shopkeeper-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	authenticator handlers.Authenticator,
	settingsReader handlers.SettingsReader,
	backupService services.BackupServiceProvider,
	eventService services.EventServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// CORS configuration for the local UI
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "capacitor://localhost"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authenticator, backupService)
	backupHandler := handlers.NewBackupHandler(backupService)
	settingsHandler := handlers.NewSettingsHandler(settingsReader, backupService)
	eventHandler := handlers.NewEventHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Everything else requires a local session token.
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())

			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/backups", func(r chi.Router) {
				r.Get("/", backupHandler.List)
				r.Post("/", backupHandler.Create)
				r.Delete("/", backupHandler.DeleteAll)
				r.Get("/next", backupHandler.NextBackup)
			})

			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Update)
			r.Get("/events", eventHandler.GetRecent)

			// WebSocket connection endpoint
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}
