package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/captcha"
	"github.com/selara/backend-store/internal/cart"
	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/discount"
)

// Creator places orders; satisfied by *Service.
type Creator interface {
	Create(ctx context.Context, userID *uuid.UUID, in Input) (Output, error)
}

// Handler exposes the checkout endpoint behind the captcha gate.
type Handler struct {
	Svc      Creator
	Verifier captcha.Verifier
}

// Create verifies the captcha token then places the order.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Verifier != nil {
		if err := h.Verifier.Verify(r.Context(), in.CaptchaToken, clientIP(r)); err != nil {
			switch {
			case errors.Is(err, captcha.ErrMissingToken):
				common.JSONError(w, http.StatusBadRequest, "CAPTCHA_REQUIRED", "captcha token is required", nil)
			case errors.Is(err, captcha.ErrVerificationFailed):
				common.JSONError(w, http.StatusForbidden, "CAPTCHA_FAILED", "captcha verification failed", nil)
			default:
				common.JSONError(w, http.StatusBadGateway, "CAPTCHA_UNAVAILABLE", "captcha provider unavailable", nil)
			}
			return
		}
	}

	var userID *uuid.UUID
	if raw, ok := common.UserID(r.Context()); ok {
		if parsed, err := uuid.Parse(raw); err == nil {
			userID = &parsed
		}
	}
	out, err := h.Svc.Create(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusBadRequest, "EMPTY_CART", "cart is empty", nil)
	case errors.Is(err, ErrCartNotOwned):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "cart does not belong to user", nil)
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case isDiscountError(err):
		status, code := discount.StatusFor(err)
		common.JSONError(w, status, code, err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to place order", nil)
	}
}

func isDiscountError(err error) bool {
	for _, sentinel := range []error{
		discount.ErrEmptyCode,
		discount.ErrCodeNotFound,
		discount.ErrInactive,
		discount.ErrExpired,
		discount.ErrUsageLimitReached,
		discount.ErrNotApplicable,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
