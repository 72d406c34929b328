package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

var errServerFailure = errors.New("handler returned a server error")

// CircuitBreakerConfig holds configuration for circuit breaker
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that opens the breaker once
	// MinRequests have been seen.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreaker sheds load with 503 while the handlers behind it keep
// answering with 5xx.
func CircuitBreaker(config CircuitBreakerConfig, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := cb.Execute(func() (interface{}, error) {
				ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
				next.ServeHTTP(ww, r)
				if ww.Status() >= http.StatusInternalServerError {
					return nil, errServerFailure
				}
				return nil, nil
			})

			switch {
			case err == nil, errors.Is(err, errServerFailure):
				// the handler already wrote its response
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				logger.Warn("Circuit breaker rejected request",
					zap.String("name", config.Name),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				errs.HandleStatus(w, r, http.StatusServiceUnavailable, "Service temporarily unavailable")
			default:
				errs.Handle(w, r, err)
			}
		})
	}
}
