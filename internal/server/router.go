// Package server is the HTTP surface: document upload and status, donor
// lookup, screening export, health and metrics.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tissuetrace/donor-audit/internal/async"
	"github.com/tissuetrace/donor-audit/internal/export"
	"github.com/tissuetrace/donor-audit/internal/repository"
	"github.com/tissuetrace/donor-audit/internal/screening"
)

type Server struct {
	logger    *slog.Logger
	screening *screening.Service
	queue     async.Queue
	donors    repository.DonorRepository
	documents repository.DocumentRepository
	exporter  *export.Service
	health    func() error
}

func New(logger *slog.Logger, svc *screening.Service, queue async.Queue,
	donors repository.DonorRepository, documents repository.DocumentRepository,
	exporter *export.Service, health func() error) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:    logger,
		screening: svc,
		queue:     queue,
		donors:    donors,
		documents: documents,
		exporter:  exporter,
		health:    health,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.handleUploadDocument)
		r.Get("/{id}/status", s.handleDocumentStatus)
	})
	r.Route("/donors", func(r chi.Router) {
		r.Get("/", s.handleListDonors)
		r.Get("/export", s.handleExportDonors)
		r.Get("/{id}", s.handleGetDonor)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
