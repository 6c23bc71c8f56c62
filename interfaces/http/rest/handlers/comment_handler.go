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

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	comments *services.CommentService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments *services.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		errors:   apperrors.NewErrorHandler(logger),
		logger:   logger,
	}
}

// Create handles POST /comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	var input services.CreateCommentInput
	if err := common.ParseJSONBody(r, &input, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	comment, err := h.comments.Create(r.Context(), identity, input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, comment)
}

// Get handles GET /comments/{commentID}
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comments.Get(r.Context(), chi.URLParam(r, "commentID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, comment)
}

// UpdateCommentRequest represents the request body for editing a comment
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// Update handles PUT /comments/{commentID}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	var req UpdateCommentRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if req.Content == "" {
		h.errors.Handle(w, r, apperrors.NewValidationError("content must not be empty"))
		return
	}

	comment, err := h.comments.Update(r.Context(), identity, chi.URLParam(r, "commentID"), req.Content)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /comments/{commentID}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	if err := h.comments.Delete(r.Context(), identity, chi.URLParam(r, "commentID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListByTarget handles GET /targets/{targetType}/{targetID}/comments
func (h *CommentHandler) ListByTarget(w http.ResponseWriter, r *http.Request) {
	targetType := entities.TargetType(chi.URLParam(r, "targetType"))
	if !targetType.Valid() {
		h.errors.Handle(w, r, apperrors.NewValidationError("unknown target type: "+string(targetType)))
		return
	}
	page := common.ExtractPageParams(r)

	comments, cursor, hasNext, err := h.comments.ListByTarget(r.Context(), targetType, chi.URLParam(r, "targetID"), page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(comments, cursor, hasNext, page.Limit))
}
