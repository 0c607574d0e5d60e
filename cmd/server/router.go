package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskchat/taskchat-api/internal/api"
	apiMiddleware "github.com/taskchat/taskchat-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and
// middleware wired to the application's services.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userService)
	userHandler := api.NewUserHandler(app.userService)
	taskHandler := api.NewTaskHandler(app.taskService)
	chatHandler := api.NewChatHandler(app.chatService, app.chatQueue)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		// Per-user resources: authenticated, and the path user must match
		// the token before any handler runs.
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(apiMiddleware.RequireSelf)

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", taskHandler.Create)
				r.Get("/", taskHandler.List)
				r.Get("/{taskID}", taskHandler.Get)
				r.Patch("/{taskID}", taskHandler.Update)
				r.Delete("/{taskID}", taskHandler.Delete)
				r.Post("/{taskID}/complete", taskHandler.Complete)
			})

			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)

			r.Post("/chat", chatHandler.SendMessage)
			r.Get("/conversations", chatHandler.ListConversations)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
