package cart

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/captcha"
	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/discount"
)

// AnonIDHeader carries the guest cart identifier issued by the storefront.
const AnonIDHeader = "X-Anon-Id"

// Handler exposes the cart HTTP surface.
type Handler struct {
	Svc *Service
	// Verifier gates the public discount-apply action; nil skips the check.
	Verifier captcha.Verifier
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type setQtyRequest struct {
	Qty       int   `json:"qty"`
	UnitPrice int64 `json:"unitPrice"`
}

type applyCodeRequest struct {
	Code         string `json:"code"`
	CaptchaToken string `json:"captchaToken"`
}

type mergeRequest struct {
	GuestCartID string `json:"guestCartId"`
}

// Ensure loads or creates the caller's cart.
func (h *Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var userID *uuid.UUID
	if raw, ok := common.UserID(r.Context()); ok {
		if parsed, err := uuid.Parse(raw); err == nil {
			userID = &parsed
		}
	}
	var anonID *string
	if v := strings.TrimSpace(r.Header.Get(AnonIDHeader)); v != "" {
		anonID = &v
	}
	cart, err := h.Svc.EnsureCart(r.Context(), userID, anonID)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "user or anon id required", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	view, err := h.Svc.Get(r.Context(), cart.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// Get returns the assembled cart view.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err, "failed to load cart")
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// AddItem inserts or increments a line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	productID, err := uuid.Parse(strings.TrimSpace(req.ProductID))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid productId", nil)
		return
	}
	if err := h.Svc.AddItem(r.Context(), cartID, productID, req.Qty); err != nil {
		h.writeError(w, err, "failed to add item")
		return
	}
	view, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err, "failed to load cart")
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// SetQuantity applies a tier selection to the product's line. Quantity zero
// removes the line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	var req setQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.SetQuantityAndPrice(r.Context(), cartID, productID, req.Qty, req.UnitPrice); err != nil {
		h.writeError(w, err, "failed to update quantity")
		return
	}
	view, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err, "failed to load cart")
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// RemoveItem deletes a line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid line id", nil)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), cartID, lineID); err != nil {
		h.writeError(w, err, "failed to remove item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyDiscount validates and attaches a code to the cart.
func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var req applyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if !h.verifyCaptcha(w, r, req.CaptchaToken) {
		return
	}
	amount, err := h.Svc.ApplyDiscount(r.Context(), cartID, req.Code)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart is empty", nil)
			return
		}
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
			return
		}
		status, code := discount.StatusFor(err)
		common.JSONError(w, status, code, err.Error(), nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"discount": amount})
}

func (h *Handler) verifyCaptcha(w http.ResponseWriter, r *http.Request, token string) bool {
	if h.Verifier == nil {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if err := h.Verifier.Verify(r.Context(), token, host); err != nil {
		switch {
		case errors.Is(err, captcha.ErrMissingToken):
			common.JSONError(w, http.StatusBadRequest, "CAPTCHA_REQUIRED", "captcha token is required", nil)
		case errors.Is(err, captcha.ErrVerificationFailed):
			common.JSONError(w, http.StatusForbidden, "CAPTCHA_FAILED", "captcha verification failed", nil)
		default:
			common.JSONError(w, http.StatusBadGateway, "CAPTCHA_UNAVAILABLE", "captcha provider unavailable", nil)
		}
		return false
	}
	return true
}

// RemoveDiscount clears the applied code.
func (h *Handler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.RemoveDiscount(r.Context(), cartID); err != nil {
		h.writeError(w, err, "failed to remove discount")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Merge folds a guest cart into the authenticated user's cart.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	raw, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user id", nil)
		return
	}
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	guestCartID, err := uuid.Parse(strings.TrimSpace(req.GuestCartID))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid guestCartId", nil)
		return
	}
	mergedID, err := h.Svc.Merge(r.Context(), guestCartID, userID)
	if err != nil {
		h.writeError(w, err, "failed to merge carts")
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"cartId": mergedID})
}

func (h *Handler) cartID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "cartID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}
