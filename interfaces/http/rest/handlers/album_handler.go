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

// AlbumHandler handles album-related HTTP requests
type AlbumHandler struct {
	albums *services.AlbumService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewAlbumHandler creates a new album handler
func NewAlbumHandler(albums *services.AlbumService, logger *zap.Logger) *AlbumHandler {
	return &AlbumHandler{
		albums: albums,
		errors: apperrors.NewErrorHandler(logger),
		logger: logger,
	}
}

// Create handles POST /albums
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	var input services.CreateAlbumInput
	if err := common.ParseJSONBody(r, &input, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	album, err := h.albums.Create(r.Context(), identity, input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, album)
}

// Get handles GET /albums/{albumID}
func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := common.GetIdentity(r.Context())
	albumID := chi.URLParam(r, "albumID")

	album, err := h.albums.Get(r.Context(), identity, albumID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.albums.RecordView(r.Context(), albumID)
	common.RespondJSON(w, http.StatusOK, album)
}

// Update handles PUT /albums/{albumID}
func (h *AlbumHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	var patch entities.AlbumPatch
	if err := common.ParseJSONBody(r, &patch, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if patch.IsZero() {
		h.errors.Handle(w, r, apperrors.NewValidationError("patch sets no fields"))
		return
	}

	album, err := h.albums.Update(r.Context(), identity, chi.URLParam(r, "albumID"), patch)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, album)
}

// Delete handles DELETE /albums/{albumID}
func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	if err := h.albums.Delete(r.Context(), identity, chi.URLParam(r, "albumID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// List handles GET /albums
func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := common.GetIdentity(r.Context())
	page := common.ExtractPageParams(r)

	albums, cursor, hasNext, err := h.albums.List(r.Context(), identity, page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(albums, cursor, hasNext, page.Limit))
}

// ListByCreator handles GET /users/{userID}/albums
func (h *AlbumHandler) ListByCreator(w http.ResponseWriter, r *http.Request) {
	identity, _ := common.GetIdentity(r.Context())
	page := common.ExtractPageParams(r)

	albums, cursor, hasNext, err := h.albums.ListByCreator(r.Context(), identity, chi.URLParam(r, "userID"), page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(albums, cursor, hasNext, page.Limit))
}
