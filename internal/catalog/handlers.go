package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// Handler exposes the public catalog endpoints.
type Handler struct {
	Svc *Service
}

// List returns a page of products. ?all=true includes out-of-stock items.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	page := common.ParsePage(r.URL.Query(), 20, 100)
	inStockOnly := r.URL.Query().Get("all") != "true"
	result, err := h.Svc.List(r.Context(), page, inStockOnly)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

// Get returns the product detail including the quantity tier menu.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "slug is required", nil)
		return
	}
	detail, err := h.Svc.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	common.JSONData(w, http.StatusOK, detail)
}

// AdminHandler exposes product management for the back office.
type AdminHandler struct {
	Svc      *Service
	Validate *validator.Validate
}

type productPayload struct {
	Title       string   `json:"title" validate:"required,min=2"`
	Slug        string   `json:"slug" validate:"required,min=2"`
	Description string   `json:"description"`
	Price       int64    `json:"price" validate:"gte=0"`
	CompareAt   *int64   `json:"compareAt" validate:"omitempty,gte=0"`
	InStock     bool     `json:"inStock"`
	Thumbnail   *string  `json:"thumbnail"`
	Images      []string `json:"images"`
}

func (h *AdminHandler) validate() *validator.Validate {
	if h.Validate == nil {
		h.Validate = validator.New()
	}
	return h.Validate
}

// Create inserts a product.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.Svc.Create(r.Context(), payload.toProduct())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already in use", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create product", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, created)
}

// Update replaces a product's fields.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	product := payload.toProduct()
	product.ID = id
	updated, err := h.Svc.Update(r.Context(), product)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update product", nil)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

// Delete removes a product.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete product", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request) (productPayload, bool) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return productPayload{}, false
	}
	if err := h.validate().Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid product", map[string]any{"error": err.Error()})
		return productPayload{}, false
	}
	return payload, true
}

func (p productPayload) toProduct() domain.Product {
	return domain.Product{
		Title:       strings.TrimSpace(p.Title),
		Slug:        strings.TrimSpace(p.Slug),
		Description: p.Description,
		Price:       p.Price,
		CompareAt:   p.CompareAt,
		InStock:     p.InStock,
		Thumbnail:   p.Thumbnail,
		Images:      p.Images,
	}
}
