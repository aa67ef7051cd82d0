package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"royaltyengine/service"
)

// Server exposes the royalty engine over HTTP
type Server struct {
	runs       service.RunService
	statements service.StatementService
	validator  service.ValidationService
}

// NewServer creates an HTTP server over the given services
func NewServer(runs service.RunService, statements service.StatementService, validator service.ValidationService) *Server {
	return &Server{
		runs:       runs,
		statements: statements,
		validator:  validator,
	}
}

// Router builds the HTTP routing table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.createRun)
			r.Get("/", s.listRuns)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", s.getRun)
				r.Post("/recalculate", s.recalculateRun)
				r.Get("/validation", s.validateRun)
				r.Post("/review", s.reviewRun)
				r.Post("/rollback", s.rollbackRun)
				r.Post("/reset", s.resetRun)
				r.Post("/statements/reviewed", s.markRunReviewed)
			})
		})
		r.Route("/statements", func(r chi.Router) {
			r.Get("/", s.listStatements)
			r.Route("/{statementID}", func(r chi.Router) {
				r.Get("/", s.getStatement)
				r.Post("/dispute", s.disputeStatement)
				r.Post("/resolve", s.resolveStatement)
				r.Post("/paid", s.markStatementPaid)
				r.Get("/document", s.renderStatementDocument)
			})
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Debug("HTTP request")
	})
}
