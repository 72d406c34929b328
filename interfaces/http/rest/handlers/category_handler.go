package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/services"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	responder
	categories *services.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *services.CategoryService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{responder: newResponder(errs, logger), categories: categories}
}

// CategoryRequest is the body of category writes
type CategoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory handles POST /categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req CategoryRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	category, err := h.categories.Create(r.Context(), caller, req.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, category)
}

// GetCategories handles GET /categories
func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		category, err := h.categories.Get(r.Context(), id)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, category)
		return
	}

	categories, err := h.categories.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, categories)
}

// UpdateCategory handles PUT /categories/{categoryID}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req CategoryRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	category, err := h.categories.Update(r.Context(), caller, chi.URLParam(r, "categoryID"), req.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /categories/{categoryID}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	id := chi.URLParam(r, "categoryID")
	if err := h.categories.Delete(r.Context(), caller, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, deleted{Message: "Deleted", ID: id})
}
