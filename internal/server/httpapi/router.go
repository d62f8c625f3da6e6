// Package httpapi exposes the backend over HTTP: account endpoints, media
// presigning and report intake/listing, with JWT bearer authentication.
package httpapi

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ibalodis/fieldsignal/internal/logging"
	"github.com/ibalodis/fieldsignal/internal/server/models"
)

// Authenticator is the slice of UserService the handlers need.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// ReportIntake is the slice of ReportService the handlers need.
type ReportIntake interface {
	Accept(ctx context.Context, report *models.Report) (string, error)
	List(ctx context.Context, limit int) ([]models.Report, error)
}

// Presigner hands out object storage URLs for media attachments.
type Presigner interface {
	GetPresignedPutURL(ctx context.Context) (string, string, error)
	GetPresignedGetURL(ctx context.Context, key string) (string, error)
}

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	auth      Authenticator
	reports   ReportIntake
	media     Presigner
	jwtSecret []byte
	logger    logging.Logger
}

func NewHandler(auth Authenticator, reports ReportIntake, media Presigner, jwtSecret []byte, logger logging.Logger) *Handler {
	return &Handler{
		auth:      auth,
		reports:   reports,
		media:     media,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// NewRouter builds the route tree. Everything under /api except login and
// register requires a valid bearer token.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/media/presign", h.presignUpload)
			r.Get("/media/url", h.presignDownload)
			r.Post("/reports", h.submitReport)
			r.Get("/reports", h.listReports)
		})
	})

	return r
}
