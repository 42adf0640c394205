// Package handler implements the HTTP surface of the voter file export
// service. Handlers decode and shape-check requests, map domain errors to
// status codes, and hand the real work to the service layer. Authorization
// and ownership checks live in the gateway in front of this service, not
// here.
package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thegoodparty/gp-api-sub001/internal/domain"
	"github.com/thegoodparty/gp-api-sub001/internal/service"
)

// ExportServicer defines the pipeline operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the service layer or a database.
type ExportServicer interface {
	Count(ctx context.Context, req domain.ExportRequest) (int64, error)
	Export(ctx context.Context, req domain.ExportRequest, w io.Writer) (service.ExportStats, error)
}

// Server holds the handlers' shared dependencies. Methods live in
// endpoint-specific files (export.go, health.go) but all operate on this
// struct.
type Server struct {
	exports  ExportServicer
	validate *validator.Validate
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(exports ExportServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		exports:  exports,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Register mounts all routes on r. Global middleware (request ID, logging,
// recovery, CORS, body limits) is applied by the caller in main.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/exports", s.handleExport)
	r.Post("/v1/exports/count", s.handleCount)
}
