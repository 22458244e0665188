package service

import (
	"token_hub/internal/app"
	"token_hub/internal/pkg/auth"
	"token_hub/internal/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// Service encapsulates the HTTP server configuration, including the application's business logic,
// HTTP handlers, the server's run address, and a logger for event and error logging.
type Service struct {
	handlers   *handlers
	app        *app.App
	runAddress string
	log        *logger.Logger
}

// NewService creates and initializes a new Service instance.
// It sets up the handlers using the provided application and logger,
// and configures the server's run address.
func NewService(app *app.App, runAddress string, l *logger.Logger) *Service {
	handlers := newHandlers(app, l)
	return &Service{handlers: handlers, app: app, runAddress: runAddress, log: l}
}

// NewRouter sets up and returns a new chi.Router instance with the necessary middleware and routes.
// It applies logging middleware globally, and JWT session middleware for protected routes.
func (service *Service) NewRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(service.log.WithLogging())
	router.Post("/api/login", service.handlers.loginHandler)
	router.Route("/", func(r chi.Router) {
		r.Use(auth.CheckJWTMiddleware())
		r.Post("/api/logout", service.handlers.logoutHandler)
		r.Get("/api/info", service.handlers.infoHandler)
		r.Get("/api/transfers", service.handlers.listTransfersHandler)
		r.Post("/api/transfers", service.handlers.suggestHandler)
		r.Post("/api/transfers/{id}/approve", service.handlers.approveHandler)
		r.Post("/api/transfers/{id}/reject", service.handlers.rejectHandler)
	})
	return router
}
