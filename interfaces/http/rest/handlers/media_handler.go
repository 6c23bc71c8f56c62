package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lumina-backend/application/services"
	"lumina-backend/domain/entities"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
)

// MediaHandler handles media-related HTTP requests
type MediaHandler struct {
	media  *services.MediaService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(media *services.MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		media:  media,
		errors: apperrors.NewErrorHandler(logger),
		logger: logger,
	}
}

// Create handles POST /media
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	var input services.CreateMediaInput
	if err := common.ParseJSONBody(r, &input, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	media, err := h.media.Create(r.Context(), identity, input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, media)
}

// Get handles GET /media/{mediaID}
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")

	media, err := h.media.Get(r.Context(), mediaID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.media.RecordView(r.Context(), mediaID)
	common.RespondJSON(w, http.StatusOK, media)
}

// Update handles PUT /media/{mediaID}
func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	var patch entities.MediaPatch
	if err := common.ParseJSONBody(r, &patch, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if patch.IsZero() {
		h.errors.Handle(w, r, apperrors.NewValidationError("patch sets no fields"))
		return
	}

	media, err := h.media.Update(r.Context(), identity, chi.URLParam(r, "mediaID"), patch)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, media)
}

// Delete handles DELETE /media/{mediaID}
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	if err := h.media.Delete(r.Context(), identity, chi.URLParam(r, "mediaID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListByAlbum handles GET /albums/{albumID}/media
func (h *MediaHandler) ListByAlbum(w http.ResponseWriter, r *http.Request) {
	identity, _ := common.GetIdentity(r.Context())
	page := common.ExtractPageParams(r)

	media, cursor, hasNext, err := h.media.ListByAlbum(r.Context(), identity, chi.URLParam(r, "albumID"), page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(media, cursor, hasNext, page.Limit))
}

// ListByCreator handles GET /users/{userID}/media
func (h *MediaHandler) ListByCreator(w http.ResponseWriter, r *http.Request) {
	page := common.ExtractPageParams(r)

	media, cursor, hasNext, err := h.media.ListByCreator(r.Context(), chi.URLParam(r, "userID"), page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(media, cursor, hasNext, page.Limit))
}
