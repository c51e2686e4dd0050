// Package server exposes the singularity tool layer over HTTP.
//
//	POST /tool    execute a tool call
//	GET  /schema  tool schema for agent registration
//	GET  /health  liveness check
//	GET  /metrics prometheus exposition
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/njchilds90/singularity"
)

const (
	tracerName = "github.com/njchilds90/singularity/internal/server"

	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"

	defaultMaxBodyBytes = 1 << 20
)

type ctxKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Server holds the handler dependencies.
type Server struct {
	detector     *singularity.Detector
	logger       *slog.Logger
	gatherer     prometheus.Gatherer
	maxBodyBytes int64
	tracer       trace.Tracer
}

type Option func(s *Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

func New(d *singularity.Detector, opts ...Option) *Server {
	s := &Server{
		detector:     d,
		logger:       slog.Default(),
		gatherer:     prometheus.DefaultGatherer,
		maxBodyBytes: defaultMaxBodyBytes,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router serving every endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.recoverer)

	r.Post("/tool", s.handleTool)
	r.Get("/schema", s.handleSchema)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// NewHTTPServer wraps handler with the timeouts every listener uses.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// requestID reuses the caller's X-Request-ID or assigns a fresh uuid.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler",
					"path", r.URL.Path,
					"request_id", RequestID(r.Context()),
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req singularity.ToolRequest
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if dec.More() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "tool."+req.Tool,
		trace.WithAttributes(
			attribute.String("tool.name", req.Tool),
			attribute.String("request.id", RequestID(r.Context())),
		))
	defer span.End()

	start := time.Now()
	resp := s.detector.HandleToolCall(ctx, req)
	if resp.Error != "" {
		span.SetStatus(codes.Error, resp.Error)
	}
	s.logger.Info("tool call",
		"tool", req.Tool,
		"request_id", RequestID(ctx),
		"duration", time.Since(start),
		"ok", resp.Error == "")

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, singularity.MCPToolSpec())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
