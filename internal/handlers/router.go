package handlers

import (
	"net/http"

	"dating-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups every HTTP handler served by the API
type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Likes     *LikeHandler
	Photos    *PhotoHandler
	Messages  *MessageHandler
	Admin     *AdminHandler
	WebSocket *WebSocketHandler
}

// RouterConfig holds the collaborators of the router itself
type RouterConfig struct {
	Tokens         middleware.TokenParser
	Activity       middleware.ActivityTracker
	AllowedOrigins []string
}

// NewRouter builds the API routes
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Pagination", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/loginGoogle/{idToken}", h.Auth.LoginGoogle)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.Tokens))
			if cfg.Activity != nil {
				r.Use(middleware.LastActive(cfg.Activity))
			}

			r.Get("/users", h.Users.ListUsers)
			r.Get("/users/{id}", h.Users.GetUser)
			r.Put("/users/{id}", h.Users.UpdateUser)
			r.Put("/users/{id}/push", h.Users.RegisterPush)
			r.Post("/users/{id}/like/{recipientId}", h.Likes.LikeUser)

			r.Route("/users/{userId}/photos", func(r chi.Router) {
				r.Post("/", h.Photos.UploadPhoto)
				r.Get("/{id}", h.Photos.GetPhoto)
				r.Post("/{id}/setMain", h.Photos.SetMainPhoto)
				r.Delete("/{id}", h.Photos.DeletePhoto)
			})

			r.Route("/users/{userId}/messages", func(r chi.Router) {
				r.Get("/", h.Messages.ListMessages)
				r.Post("/", h.Messages.SendMessage)
				r.Get("/thread/{recipientId}", h.Messages.GetThread)
				r.Get("/{id}", h.Messages.GetMessage)
				r.Post("/{id}", h.Messages.DeleteMessage)
				r.Post("/{id}/read", h.Messages.MarkMessageRead)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/usersWithRoles", h.Admin.UsersWithRoles)
				r.Post("/editRoles/{userName}", h.Admin.EditRoles)
				r.Get("/photosForModeration", h.Admin.PhotosForModeration)
				r.Post("/approvePhoto/{photoId}", h.Admin.ApprovePhoto)
				r.Post("/rejectPhoto/{photoId}", h.Admin.RejectPhoto)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", h.WebSocket.HandleWebSocket)

	return r
}
