package middleware

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"studentmedia/internal/apperr"
	handlers "studentmedia/internal/handler"
	"studentmedia/internal/service"
)

type Middleware func(http.Handler) http.Handler

// AuthMiddleware resolves the bearer token to a user and places it in the context.
// Token problems are 401s. Lookup failures keep their own kind and are logged.
func AuthMiddleware(authService service.AuthService, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extracting the token from the header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				handlers.WriteError(w, apperr.Unauthorized("authentication required"))
				return
			}

			// Checking the "Bearer <token>" format
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				handlers.WriteError(w, apperr.Unauthorized("invalid authorization header"))
				return
			}

			user, err := authService.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if handlers.StatusFor(apperr.KindOf(err)) == http.StatusInternalServerError {
					logger.Error("authentication failed",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)
				}
				handlers.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.ContextWithUser(r.Context(), user)))
		})
	}
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request with its status and latency.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

// Chain wraps h so that the first middleware listed runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
