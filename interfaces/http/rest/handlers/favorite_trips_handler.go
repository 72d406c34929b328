package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/services"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// FavoriteTripsHandler handles a user's favorite trips list
type FavoriteTripsHandler struct {
	responder
	favorites *services.FavoriteTripsService
}

// NewFavoriteTripsHandler creates a new favorite trips handler
func NewFavoriteTripsHandler(favorites *services.FavoriteTripsService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *FavoriteTripsHandler {
	return &FavoriteTripsHandler{responder: newResponder(errs, logger), favorites: favorites}
}

// SetFavoriteTripsRequest is the body of POST /favoritetrips
type SetFavoriteTripsRequest struct {
	TripIDs []string `json:"tripIds"`
}

// GetFavoriteTrips handles GET /favoritetrips?email=
func (h *FavoriteTripsHandler) GetFavoriteTrips(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.respondError(w, r, pkgerrors.NewValidationError("Missing or badly encoded email"))
		return
	}

	favorites, err := h.favorites.Get(r.Context(), email)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, favorites)
}

// SetFavoriteTrips handles POST /favoritetrips
func (h *FavoriteTripsHandler) SetFavoriteTrips(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req SetFavoriteTripsRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	favorites, err := h.favorites.Set(r.Context(), caller, req.TripIDs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, favorites)
}
