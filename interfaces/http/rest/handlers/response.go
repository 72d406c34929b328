// Package handlers holds the REST handlers. Every handler resolves the caller
// from the auth middleware, calls one service and writes JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/services"
	"github.com/FeroHriadel/tripiabackend/pkg/auth"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// responder carries what every handler needs to write responses.
type responder struct {
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func newResponder(errs *pkgerrors.ErrorHandler, logger *zap.Logger) responder {
	return responder{errors: errs, logger: logger}
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h responder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	h.errors.Handle(w, r, err)
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.NewValidationError("Invalid request body").WithCause(err)
	}
	return nil
}

// callerFrom returns the authenticated caller set by the auth middleware.
func callerFrom(r *http.Request) (services.Caller, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil || user.Email == "" {
		return services.Caller{}, pkgerrors.NewUnauthorizedError("")
	}
	return services.Caller{Email: user.Email, IsAdmin: user.IsAdmin}, nil
}

// deleted is the body returned by every delete endpoint.
type deleted struct {
	Message    string      `json:"message"`
	ID         string      `json:"id"`
	Dispatched interface{} `json:"dispatched,omitempty"`
}
