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

// InteractionHandler handles like and bookmark HTTP requests
type InteractionHandler struct {
	interactions *services.InteractionService
	errors       *apperrors.ErrorHandler
	logger       *zap.Logger
}

// NewInteractionHandler creates a new interaction handler
func NewInteractionHandler(interactions *services.InteractionService, logger *zap.Logger) *InteractionHandler {
	return &InteractionHandler{
		interactions: interactions,
		errors:       apperrors.NewErrorHandler(logger),
		logger:       logger,
	}
}

// interactionParams parses and validates the interaction path segments.
func interactionParams(r *http.Request) (entities.InteractionType, entities.TargetType, string, error) {
	interactionType := entities.InteractionType(chi.URLParam(r, "interactionType"))
	if !interactionType.Valid() {
		return "", "", "", apperrors.NewValidationError("unknown interaction type: " + string(interactionType))
	}
	targetType := entities.TargetType(chi.URLParam(r, "targetType"))
	if !targetType.Valid() {
		return "", "", "", apperrors.NewValidationError("unknown target type: " + string(targetType))
	}
	return interactionType, targetType, chi.URLParam(r, "targetID"), nil
}

// Add handles PUT /interactions/{interactionType}/{targetType}/{targetID}
func (h *InteractionHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}
	interactionType, targetType, targetID, err := interactionParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.interactions.Add(r.Context(), identity, interactionType, targetType, targetID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// Remove handles DELETE /interactions/{interactionType}/{targetType}/{targetID}
func (h *InteractionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}
	interactionType, targetType, targetID, err := interactionParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.interactions.Remove(r.Context(), identity, interactionType, targetType, targetID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// Has handles GET /interactions/{interactionType}/{targetType}/{targetID}
func (h *InteractionHandler) Has(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}
	interactionType, targetType, targetID, err := interactionParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	has, err := h.interactions.Has(r.Context(), identity, interactionType, targetType, targetID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"has": has})
}

// ListMine handles GET /interactions/{interactionType}
func (h *InteractionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}
	interactionType := entities.InteractionType(chi.URLParam(r, "interactionType"))
	if !interactionType.Valid() {
		h.errors.Handle(w, r, apperrors.NewValidationError("unknown interaction type: "+string(interactionType)))
		return
	}
	page := common.ExtractPageParams(r)

	items, cursor, hasNext, err := h.interactions.ListMine(r.Context(), identity, interactionType, page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(items, cursor, hasNext, page.Limit))
}

// ListByTarget handles GET /interactions/{interactionType}/{targetType}/{targetID}/users
func (h *InteractionHandler) ListByTarget(w http.ResponseWriter, r *http.Request) {
	interactionType, targetType, targetID, err := interactionParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	page := common.ExtractPageParams(r)

	items, cursor, hasNext, err := h.interactions.ListByTarget(r.Context(), targetType, targetID, interactionType, page)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(items, cursor, hasNext, page.Limit))
}

// RebuildCounter handles POST /interactions/{interactionType}/{targetType}/{targetID}/rebuild
func (h *InteractionHandler) RebuildCounter(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}
	interactionType, targetType, targetID, err := interactionParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	count, err := h.interactions.RebuildCounter(r.Context(), identity, interactionType, targetType, targetID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]int{"count": count})
}
