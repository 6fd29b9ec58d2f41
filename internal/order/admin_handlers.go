package order

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// AdminHandler exposes order management for the back office.
type AdminHandler struct {
	Svc *Service
}

type statusRequest struct {
	Status string `json:"status"`
}

// List returns all orders, optionally filtered by ?status=.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	page := common.ParsePage(r.URL.Query(), 20, 100)
	var status *domain.OrderStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, ok := parseStatus(raw)
		if !ok {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid status filter", nil)
			return
		}
		status = &parsed
	}
	orders, err := h.Svc.List(r.Context(), status, page)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	common.JSONData(w, http.StatusOK, orders)
}

// Get returns one order with its items without ownership checks.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, items, err := h.Svc.Get(r.Context(), orderID, nil)
	if err != nil {
		(&Handler{Svc: h.Svc}).writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, orderDetail{Order: o, Items: items})
}

// SetStatus applies a lifecycle transition.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	status, ok := parseStatus(req.Status)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid status", nil)
		return
	}
	o, err := h.Svc.SetStatus(r.Context(), orderID, status)
	if err != nil {
		(&Handler{Svc: h.Svc}).writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

func parseStatus(raw string) (domain.OrderStatus, bool) {
	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case domain.OrderPending, domain.OrderConfirmed, domain.OrderShipped, domain.OrderCompleted, domain.OrderCanceled:
		return status, true
	}
	return "", false
}
