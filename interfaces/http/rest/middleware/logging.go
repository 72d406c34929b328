package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/pkg/auth"
)

// Logger creates a logging middleware
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr),
				zap.String("userAgent", r.UserAgent()),
			}

			switch {
			case ww.Status() >= http.StatusInternalServerError:
				logger.Error("HTTP Request", fields...)
			case ww.Status() >= http.StatusBadRequest:
				logger.Warn("HTTP Request", fields...)
			default:
				logger.Info("HTTP Request", fields...)
			}
		})
	}
}

// UserLogger tags the request log with the authenticated caller. It must run
// after Authenticate.
func UserLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := auth.GetUserFromContext(r.Context()); err == nil {
				logger.Debug("Authenticated request",
					zap.String("user", user.Email),
					zap.Bool("admin", user.IsAdmin),
					zap.String("path", r.URL.Path),
					zap.String("requestID", middleware.GetReqID(r.Context())),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}
