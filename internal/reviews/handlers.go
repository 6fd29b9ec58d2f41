package reviews

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/captcha"
	"github.com/selara/backend-store/internal/common"
)

// Handler exposes public review submission and listing.
type Handler struct {
	Svc      *Service
	Verifier captcha.Verifier
}

type submitRequest struct {
	Author       string `json:"author"`
	Rating       int    `json:"rating"`
	Body         string `json:"body"`
	CaptchaToken string `json:"captchaToken"`
}

// Submit stores a review behind the captcha gate.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reviews service not configured", nil)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Verifier != nil {
		host, _, splitErr := net.SplitHostPort(r.RemoteAddr)
		if splitErr != nil {
			host = r.RemoteAddr
		}
		if err := h.Verifier.Verify(r.Context(), req.CaptchaToken, host); err != nil {
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
	created, err := h.Svc.Submit(r.Context(), productID, req.Author, req.Rating, req.Body)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "author, body and a 1-5 rating are required", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to submit review", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, created)
}

// List returns published reviews for a product.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reviews service not configured", nil)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	page := common.ParsePage(r.URL.Query(), 10, 50)
	list, err := h.Svc.ListApproved(r.Context(), productID, page)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list reviews", nil)
		return
	}
	common.JSONData(w, http.StatusOK, list)
}

// AdminHandler exposes review moderation.
type AdminHandler struct {
	Svc *Service
}

// ListPending returns reviews awaiting moderation.
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reviews service not configured", nil)
		return
	}
	page := common.ParsePage(r.URL.Query(), 20, 100)
	list, err := h.Svc.ListPending(r.Context(), page)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list reviews", nil)
		return
	}
	common.JSONData(w, http.StatusOK, list)
}

// Approve publishes a review.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reviews service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid review id", nil)
		return
	}
	rv, err := h.Svc.Approve(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "review not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to approve review", nil)
		return
	}
	common.JSONData(w, http.StatusOK, rv)
}

// Delete removes a review.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reviews service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid review id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "review not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete review", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
