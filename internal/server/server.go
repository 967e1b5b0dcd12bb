// Package server provides the HTTP API over the pipeline's stage records:
// read-only projections, aggregate health, and the intake endpoints that feed
// new submissions into processing.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viaantech/resume-ranking/internal/store"
	"github.com/viaantech/resume-ranking/internal/types"
)

// Intake accepts a raw resume file into the system: it stores the blob,
// creates the Submission record, and signals the pipeline.
type Intake interface {
	Accept(ctx context.Context, filename, contentType string, data []byte) (*types.Submission, error)
}

// Trigger enqueues a pipeline invocation for an existing submission.
// Processing is asynchronous relative to the caller.
type Trigger interface {
	TriggerProcessing(ctx context.Context, submissionID uuid.UUID) error
}

// Config holds server configuration.
type Config struct {
	Port          int
	MaxUploadSize int64
}

// DefaultMaxUploadSize bounds direct uploads and webhook attachments.
const DefaultMaxUploadSize = 10 << 20 // 10 MiB

// Server is the HTTP API.
type Server struct {
	httpServer  *http.Server
	submissions store.SubmissionStore
	parsed      store.ParsedResumeStore
	analyses    store.AnalysisStore
	ranked      store.RankedLister
	health      store.HealthReporter
	intake      Intake
	trigger     Trigger
	maxUpload   int64
	logger      *zap.Logger
}

// Deps bundles the server's collaborators.
type Deps struct {
	Submissions store.SubmissionStore
	Parsed      store.ParsedResumeStore
	Analyses    store.AnalysisStore
	Ranked      store.RankedLister
	Health      store.HealthReporter
	Intake      Intake
	Trigger     Trigger
	Logger      *zap.Logger
}

// New creates a server instance.
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadSize
	}

	s := &Server{
		submissions: deps.Submissions,
		parsed:      deps.Parsed,
		analyses:    deps.Analyses,
		ranked:      deps.Ranked,
		health:      deps.Health,
		intake:      deps.Intake,
		trigger:     deps.Trigger,
		maxUpload:   maxUpload,
		logger:      logger,
	}

	mux := http.NewServeMux()

	// Read-only projections
	mux.HandleFunc("GET /submissions", s.handleListSubmissions)
	mux.HandleFunc("GET /submissions/{id}", s.handleGetSubmission)
	mux.HandleFunc("GET /parsed-resumes", s.handleListParsedResumes)
	mux.HandleFunc("GET /analyses", s.handleListAnalyses)
	mux.HandleFunc("GET /analyses/{id}", s.handleGetAnalysis)
	mux.HandleFunc("GET /resumes/ranked", s.handleListRanked)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Intake and triggers
	mux.HandleFunc("POST /submissions", s.handleUpload)
	mux.HandleFunc("POST /submissions/{id}/process", s.handleReprocess)
	mux.HandleFunc("POST /webhooks/inbound-email", s.handleInboundEmail)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
