// Package api exposes the HTTP posting interface for permitbot.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/permitwatch/permit-crawler/internal/metrics"
	"github.com/permitwatch/permit-crawler/internal/permit"
	"github.com/permitwatch/permit-crawler/internal/publish"
)

// Server wires HTTP handlers to the poster. It lets other processes hand a
// captured permit to the bot and have it formatted and published without
// touching the record store.
type Server struct {
	router        chi.Router
	poster        publish.Poster
	permalinkBase string
	logger        *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(poster publish.Poster, permalinkBase string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		poster:        poster,
		permalinkBase: permalinkBase,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/post", s.post)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postPermitRequest carries either preformatted text or enough permit
// fields to format a post server-side. Text wins when both are present.
type postPermitRequest struct {
	Text        string `json:"text"`
	RSN         int64  `json:"rsn"`
	Subtype     string `json:"subtype"`
	ProjectName string `json:"project_name"`
	Zip         string `json:"zip"`
}

func (s *Server) post(w http.ResponseWriter, r *http.Request) {
	var req postPermitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	text, err := s.renderText(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.poster.Post(r.Context(), text)
	if err != nil {
		s.logger.Error("post failed", zap.Error(err))
		metrics.ObservePost("error")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	metrics.ObservePost(outcome.String())
	writeJSON(w, http.StatusOK, map[string]string{"outcome": outcome.String(), "text": text})
}

func (s *Server) renderText(req postPermitRequest) (string, error) {
	if req.Text != "" {
		return req.Text, nil
	}
	if req.RSN <= 0 || req.Subtype == "" || req.ProjectName == "" {
		return "", errors.New("need text, or rsn with subtype and project_name")
	}
	rec := permit.Record{
		RSN: req.RSN,
		Fields: permit.Fields{
			Subtype:     req.Subtype,
			ProjectName: req.ProjectName,
			PropertyZip: req.Zip,
		},
	}
	return publish.FormatPost(rec, s.permalinkBase), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
