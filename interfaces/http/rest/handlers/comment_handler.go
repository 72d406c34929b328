package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/services"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	responder
	comments    *services.CommentService
	defaultSize int
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments *services.CommentService, defaultSize int, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{responder: newResponder(errs, logger), comments: comments, defaultSize: defaultSize}
}

// DeleteCommentRequest is the body of DELETE /comments
type DeleteCommentRequest struct {
	ID string `json:"id"`
}

// CreateComment handles POST /comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req services.CreateCommentInput
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), caller, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, comment)
}

// GetComments handles GET /comments?commentId= and GET /comments?tripId=
func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if id := q.Get("commentId"); id != "" {
		comment, err := h.comments.Get(r.Context(), id)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, comment)
		return
	}

	page, err := h.comments.ListByTrip(r.Context(), q.Get("tripId"), common.ExtractPageRequest(r, h.defaultSize))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, page)
}

// DeleteComment handles DELETE /comments
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req DeleteCommentRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.ID == "" {
		h.respondError(w, r, pkgerrors.NewValidationError("id is required"))
		return
	}

	res, err := h.comments.Delete(r.Context(), caller, req.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, deleted{Message: "Deleted", ID: res.ID, Dispatched: res.Dispatched})
}
