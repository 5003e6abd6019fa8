package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	docpress "github.com/alnah/go-docpress"
	"github.com/alnah/go-docpress/internal/logfields"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLength = 128

type requestIDKey struct{}

// RequestIDFrom returns the request ID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// chain applies request ID, logging and panic recovery around next.
func (s *Server) chain(next http.Handler) http.Handler {
	return s.requestID(s.logging(s.recovery(next)))
}

// requestID accepts a caller-supplied ID or generates one, and attaches a
// logger carrying it to the request context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = docpress.ContextWithLogger(ctx, s.logger.With(logfields.RequestID(id)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logging logs one line per request and records its duration.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		route := routeLabel(r.URL.Path)
		s.recorder.ObserveHTTPRequest(route, wrapped.statusCode, elapsed)
		docpress.LoggerFrom(r.Context(), s.logger).Info("HTTP request",
			logfields.Method(r.Method),
			logfields.Route(route),
			logfields.Status(wrapped.statusCode),
			logfields.Duration(elapsed),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

// recovery turns a handler panic into a 500 response.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				docpress.LoggerFrom(r.Context(), s.logger).Error("HTTP handler panic",
					slog.Any("panic", rec),
					logfields.Path(r.URL.Path),
					logfields.Method(r.Method))
				s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{
					Error:     http.StatusText(http.StatusInternalServerError),
					RequestID: RequestIDFrom(r.Context()),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimit rejects requests beyond the configured rate with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.writeJSON(w, r, http.StatusTooManyRequests, errorResponse{
				Error:     "rate limit exceeded",
				RequestID: RequestIDFrom(r.Context()),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeLabel bounds metric label cardinality to the known routes.
func routeLabel(path string) string {
	switch path {
	case RouteDocuments, RouteHealth, RouteMetrics:
		return path
	}
	return "other"
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
