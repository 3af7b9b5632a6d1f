package receipt

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombor/receipt-vault/internal/auth"
	"github.com/zombor/receipt-vault/internal/storage"
)

// Server handles HTTP requests for receipts
type Server struct {
	service   *Service
	verifier  auth.Verifier
	fileStore storage.ObjectStore
	mux       *http.ServeMux
}

// NewServer creates a new Server with default mux. fileStore serves the
// /files/ route backing local object storage; pass nil when the object
// store publishes its own URLs (S3).
func NewServer(service *Service, verifier auth.Verifier, fileStore storage.ObjectStore) *Server {
	return NewServerWithMux(service, verifier, fileStore, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, verifier auth.Verifier, fileStore storage.ObjectStore, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		verifier:  verifier,
		fileStore: fileStore,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate verifies the bearer token and returns the caller identity.
func (s *Server) authenticate(r *http.Request) (*auth.Identity, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}

	identity, err := s.verifier.Verify(r.Context(), strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return identity, true
}

// protected gates a handler behind bearer auth and instruments it. Auth
// runs first so the instrumented request carries the caller identity and
// the request log records the uid. Every auth failure collapses to the
// same response; the caller never learns which part of the check failed.
func (s *Server) protected(name string, next http.HandlerFunc) http.HandlerFunc {
	instrumented := s.instrument(name, next)
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := s.authenticate(r)
		if !ok {
			// Ensure CORS headers are set before error response
			setCORSHeaders(w)
			requestsTotal.WithLabelValues(name, strconv.Itoa(http.StatusForbidden)).Inc()
			http.Error(w, "Unauthorized", http.StatusForbidden)
			return
		}
		instrumented(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	}
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// statusRecorder captures the status code for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request logging and prometheus metrics
func (s *Server) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		duration := time.Since(start)
		requestsTotal.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(name).Observe(duration.Seconds())
		slog.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"uid", auth.UIDFrom(r.Context()),
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// API endpoints - receipts (most specific paths first)
	s.mux.HandleFunc("GET /receipts/{id}", s.protected("get_receipt", s.handleGetReceipt))
	s.mux.HandleFunc("DELETE /receipts/{id}", s.protected("delete_receipt", s.handleDeleteReceipt))
	s.mux.HandleFunc("GET /receipts", s.protected("list_receipts", s.handleListReceipts))
	s.mux.HandleFunc("POST /receipts", s.protected("create_receipt", s.handleCreateReceipt))

	// Upload pipeline
	s.mux.HandleFunc("POST /upload", s.protected("upload", s.handleUpload))
	s.mux.HandleFunc("POST /upload/{$}", s.protected("upload", s.handleUpload))

	// Published images are public by contract; the extraction provider
	// fetches them with no credentials
	if s.fileStore != nil {
		s.mux.HandleFunc("GET /files/{name}", s.instrument("get_file", s.handleGetFile))
	}

	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		s.mux.ServeHTTP(w, r)
	})(w, r)
}
