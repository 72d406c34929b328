package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/commands"
	"github.com/FeroHriadel/tripiabackend/application/commands/bus"
	"github.com/FeroHriadel/tripiabackend/application/services"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// TripHandler handles trip-related HTTP requests
type TripHandler struct {
	responder
	trips       *services.TripService
	commandBus  *bus.CommandBus
	defaultSize int
}

// NewTripHandler creates a new trip handler
func NewTripHandler(trips *services.TripService, commandBus *bus.CommandBus, defaultSize int, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *TripHandler {
	return &TripHandler{
		responder:   newResponder(errs, logger),
		trips:       trips,
		commandBus:  commandBus,
		defaultSize: defaultSize,
	}
}

// BatchTripsRequest is the body of POST /trips/batch
type BatchTripsRequest struct {
	TripIDs []string `json:"tripIds"`
}

// CreateTrip handles POST /trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req entities.TripDetails
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	trip, err := h.trips.Create(r.Context(), caller, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, trip)
}

// GetTrips handles GET /trips. The query selects one trip (id), a search
// (searchword), a creator's trips (createdBy) or the paginated feed.
func (h *TripHandler) GetTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("id") != "":
		trip, err := h.trips.Get(r.Context(), q.Get("id"))
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, trip)

	case q.Get("searchword") != "":
		page, err := h.trips.Search(r.Context(), q.Get("searchword"), common.ExtractPageRequest(r, h.defaultSize))
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, page)

	case q.Get("createdBy") != "":
		trips, err := h.trips.ListByCreator(r.Context(), q.Get("createdBy"))
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, trips)

	default:
		page, err := h.trips.List(r.Context(), common.ExtractPageRequest(r, h.defaultSize))
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, page)
	}
}

// UpdateTrip handles PUT /trips/{tripID}
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req entities.TripDetails
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	trip, err := h.trips.Update(r.Context(), caller, chi.URLParam(r, "tripID"), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /trips/{tripID}
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.DeleteTripCommand{
		TripID:      chi.URLParam(r, "tripID"),
		RequestedBy: caller.Email,
		IsAdmin:     caller.IsAdmin,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, _ := result.(*commands.DeleteResult)
	if res == nil {
		h.respondError(w, r, pkgerrors.NewInternalError("unexpected delete result"))
		return
	}
	h.respondJSON(w, http.StatusOK, deleted{Message: "Deleted", ID: res.ID, Dispatched: res.Dispatched})
}

// BatchGetTrips handles POST /trips/batch
func (h *TripHandler) BatchGetTrips(w http.ResponseWriter, r *http.Request) {
	var req BatchTripsRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	trips, err := h.trips.BatchGet(r.Context(), req.TripIDs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"trips": trips})
}
