package discount

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// Handler exposes administrative discount code management plus public preview.
type Handler struct {
	Store Store
	Svc   *Service
}

type codePayload struct {
	Code           string     `json:"code"`
	Type           string     `json:"type"`
	Value          int64      `json:"value"`
	Scope          string     `json:"scope"`
	ProductID      *string    `json:"productId"`
	LimitationType string     `json:"limitationType"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	UsageLimit     *int32     `json:"usageLimit"`
	IsActive       *bool      `json:"isActive"`
}

type previewRequest struct {
	Code  string        `json:"code"`
	Items []previewItem `json:"items"`
}

type previewItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unitPrice"`
	Subtotal  int64  `json:"subtotal"`
}

// Create inserts a new discount code.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	var payload codePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	code, err := buildCode(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Store.Create(r.Context(), code)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "discount code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create discount code", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, created)
}

// List returns a page of codes for the admin view.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	page := common.ParsePage(r.URL.Query(), 20, 100)
	codes, err := h.Store.List(r.Context(), page)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list discount codes", nil)
		return
	}
	common.JSONData(w, http.StatusOK, codes)
}

// Update mutates an existing code identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid discount id", nil)
		return
	}
	var payload codePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	code, err := buildCode(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	code.ID = id
	updated, err := h.Store.Update(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount code not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update discount code", nil)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

// Delete removes a code.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount store not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid discount id", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount code not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete discount code", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview returns the simulated discount for a code without persisting state.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount service not configured", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	lines, err := toEngineLines(req.Items)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	result, err := h.Svc.Preview(r.Context(), req.Code, lines)
	if err != nil {
		status, code := StatusFor(err)
		common.JSONError(w, status, code, err.Error(), nil)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

// StatusFor maps engine sentinels onto HTTP status and error codes.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrEmptyCode):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, ErrCodeNotFound):
		return http.StatusNotFound, "CODE_NOT_FOUND"
	case errors.Is(err, ErrInactive):
		return http.StatusUnprocessableEntity, "CODE_INACTIVE"
	case errors.Is(err, ErrExpired):
		return http.StatusUnprocessableEntity, "CODE_EXPIRED"
	case errors.Is(err, ErrUsageLimitReached):
		return http.StatusUnprocessableEntity, "CODE_EXHAUSTED"
	case errors.Is(err, ErrNotApplicable):
		return http.StatusUnprocessableEntity, "CODE_NOT_APPLICABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func buildCode(payload codePayload) (domain.DiscountCode, error) {
	code := strings.TrimSpace(payload.Code)
	if code == "" {
		return domain.DiscountCode{}, errors.New("code is required")
	}
	dt := domain.DiscountType(strings.TrimSpace(payload.Type))
	switch dt {
	case domain.DiscountPercentage, domain.DiscountFixedAmount:
	default:
		return domain.DiscountCode{}, errors.New("invalid type")
	}
	if payload.Value <= 0 {
		return domain.DiscountCode{}, errors.New("value must be positive")
	}
	if dt == domain.DiscountPercentage && payload.Value > 10000 {
		return domain.DiscountCode{}, errors.New("percentage exceeds 100%")
	}
	scope := domain.DiscountScope(strings.TrimSpace(payload.Scope))
	if scope == "" {
		scope = domain.ScopeCart
	}
	switch scope {
	case domain.ScopeCart, domain.ScopeProduct:
	default:
		return domain.DiscountCode{}, errors.New("invalid scope")
	}
	var productID *uuid.UUID
	if scope == domain.ScopeProduct {
		if payload.ProductID == nil || strings.TrimSpace(*payload.ProductID) == "" {
			return domain.DiscountCode{}, errors.New("productId is required for product scope")
		}
		parsed, err := uuid.Parse(strings.TrimSpace(*payload.ProductID))
		if err != nil {
			return domain.DiscountCode{}, errors.New("invalid productId")
		}
		productID = &parsed
	}
	lt := domain.LimitationType(strings.TrimSpace(payload.LimitationType))
	switch lt {
	case domain.LimitationDateRange:
		if payload.EndDate == nil {
			return domain.DiscountCode{}, errors.New("endDate is required for date_range limitation")
		}
	case domain.LimitationUsageLimit:
		if payload.UsageLimit == nil || *payload.UsageLimit <= 0 {
			return domain.DiscountCode{}, errors.New("usageLimit must be positive for usage_limit limitation")
		}
	default:
		return domain.DiscountCode{}, errors.New("invalid limitationType")
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	return domain.DiscountCode{
		Code:           code,
		Type:           dt,
		Value:          payload.Value,
		Scope:          scope,
		ProductID:      productID,
		LimitationType: lt,
		StartDate:      payload.StartDate,
		EndDate:        payload.EndDate,
		UsageLimit:     payload.UsageLimit,
		IsActive:       active,
	}, nil
}

func toEngineLines(items []previewItem) ([]Line, error) {
	if len(items) == 0 {
		return nil, errors.New("items are required for preview")
	}
	out := make([]Line, 0, len(items))
	for _, it := range items {
		if it.Qty <= 0 || it.Subtotal <= 0 {
			continue
		}
		productID, err := uuid.Parse(strings.TrimSpace(it.ProductID))
		if err != nil {
			return nil, errors.New("invalid productId in items")
		}
		out = append(out, Line{ProductID: productID, Qty: it.Qty, UnitPrice: it.UnitPrice, Subtotal: it.Subtotal})
	}
	if len(out) == 0 {
		return nil, errors.New("no valid items provided")
	}
	return out, nil
}
