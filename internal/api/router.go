package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/taskboard-be/internal/api/handlers"
	"github.com/isdelr/taskboard-be/internal/api/validation"
	"github.com/isdelr/taskboard-be/internal/services"
	"github.com/isdelr/taskboard-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router. stats may be nil.
func NewRouter(
	allowedOrigins []string,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	taskService services.TaskServiceProvider,
	stats handlers.StatsProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	validator := validation.MustNew()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, validator)
	taskHandler := handlers.NewTaskHandler(taskService, validator)
	healthHandler := handlers.NewHealthHandler(stats)
	wsHandler := handlers.NewWebSocketHandler(hub, userService, allowedOrigins)

	r.Get("/health", healthHandler.Get)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.GetAll)
			r.Post("/", userHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Delete("/", userHandler.Delete)
				r.Get("/tasks", taskHandler.ListByUser)
				r.Get("/ws", wsHandler.Serve)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", taskHandler.UpdateStatus)
				r.Patch("/complete", taskHandler.Complete)
				r.Delete("/", taskHandler.Delete)
			})
		})
	})

	return r
}
