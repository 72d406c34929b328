package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/services"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// UploadHandler hands out presigned image upload links
type UploadHandler struct {
	responder
	uploads *services.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *services.UploadService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{responder: newResponder(errs, logger), uploads: uploads}
}

// UploadLinkRequest is the body of POST /imageuploadlink
type UploadLinkRequest struct {
	FileName string `json:"fileName"`
}

// CreateUploadLink handles POST /imageuploadlink
func (h *UploadHandler) CreateUploadLink(w http.ResponseWriter, r *http.Request) {
	var req UploadLinkRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	link, err := h.uploads.CreateUploadLink(r.Context(), req.FileName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, link)
}
