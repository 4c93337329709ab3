package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/http/middleware"
	"courier-dispatch/internal/logx"
)

// DeliveryHandler serves the delivery REST surface.
type DeliveryHandler struct {
	dispatch    dispatchUsecase
	assignments assignmentUsecase
	matching    matchingUsecase
	couriers    courierDirectory
	identities  identityDirectory
	logger      logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, dispatch dispatchUsecase, assignments assignmentUsecase, matching matchingUsecase, couriers courierDirectory, identities identityDirectory) *DeliveryHandler {
	return &DeliveryHandler{
		dispatch:    dispatch,
		assignments: assignments,
		matching:    matching,
		couriers:    couriers,
		identities:  identities,
		logger:      logger,
	}
}

func deliveryID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

// identity returns the authenticated caller. The auth middleware runs on
// every delivery route, so a missing identity is a wiring bug.
func (h *DeliveryHandler) identity(w http.ResponseWriter, r *http.Request) (domain.AuthIdentity, bool) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "missing identity")
		return domain.AuthIdentity{}, false
	}
	return actor, true
}

// courier resolves the caller's courier record. The stored identity is
// re-checked because verification can be revoked after a token was issued.
func (h *DeliveryHandler) courier(w http.ResponseWriter, r *http.Request) (*domain.Courier, bool) {
	actor, ok := h.identity(w, r)
	if !ok {
		return nil, false
	}
	ident, err := h.identities.Get(r.Context(), actor.ID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return nil, false
	}
	if ident == nil || !ident.Verified {
		writeError(h.logger, w, r, http.StatusForbidden, "courier not verified")
		return nil, false
	}
	c, err := h.couriers.GetByUserID(r.Context(), actor.ID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return nil, false
	}
	if c == nil {
		writeError(h.logger, w, r, http.StatusForbidden, "no courier profile")
		return nil, false
	}
	return c, true
}

// Create handles POST /deliveries.
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req createDeliveryRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	d, err := h.dispatch.Create(r.Context(), req.toInput(), actor.ID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, deliveryToResponse(d))
}

// List handles GET /deliveries.
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	ds, err := h.dispatch.List(r.Context(), actor)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveriesToResponse(ds))
}

// GetByID handles GET /deliveries/{id}.
func (h *DeliveryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	d, err := h.dispatch.Get(r.Context(), deliveryID(r), actor)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

// Candidates handles GET /deliveries/{id}/candidates.
func (h *DeliveryHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	cs, err := h.matching.Rank(r.Context(), deliveryID(r))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, candidatesToResponse(cs))
}

// Accept handles POST /deliveries/{id}/accept.
func (h *DeliveryHandler) Accept(w http.ResponseWriter, r *http.Request) {
	c, ok := h.courier(w, r)
	if !ok {
		return
	}

	d, err := h.assignments.Assign(r.Context(), deliveryID(r), c.ID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

// Start handles POST /deliveries/{id}/start.
func (h *DeliveryHandler) Start(w http.ResponseWriter, r *http.Request) {
	c, ok := h.courier(w, r)
	if !ok {
		return
	}

	d, err := h.assignments.Start(r.Context(), deliveryID(r), c.ID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

// Complete handles POST /deliveries/{id}/complete.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.courier(w, r)
	if !ok {
		return
	}

	var req completeDeliveryRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	d, err := h.assignments.Complete(r.Context(), deliveryID(r), c.ID, req.ActualCost)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

// Cancel handles POST /deliveries/{id}/cancel. Customers may cancel their
// own deliveries, admins any.
func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r)
	if !ok {
		return
	}

	id := deliveryID(r)
	// Ownership check; customers get Forbidden for foreign deliveries.
	if _, err := h.dispatch.Get(r.Context(), id, actor); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	d, err := h.assignments.Cancel(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

// Available handles GET /deliveries/driver/available.
func (h *DeliveryHandler) Available(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dispatch.ListAvailable(r.Context())
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveriesToResponse(ds))
}

// Active handles GET /deliveries/driver/active.
func (h *DeliveryHandler) Active(w http.ResponseWriter, r *http.Request) {
	c, ok := h.courier(w, r)
	if !ok {
		return
	}

	ds, err := h.dispatch.ListActive(r.Context(), c.ID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveriesToResponse(ds))
}

// CalculateCost handles POST /deliveries/{id}/calculate-cost.
func (h *DeliveryHandler) CalculateCost(w http.ResponseWriter, r *http.Request) {
	var req calculateCostRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	cost, err := h.dispatch.RecalculateCost(r.Context(), deliveryID(r), req.DistanceKm, req.VehicleID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, calculateCostResponse{EstimatedCost: cost})
}
