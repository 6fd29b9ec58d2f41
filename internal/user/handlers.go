package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// Store captures the persistence methods the admin user endpoints need.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	List(ctx context.Context, page common.Page) ([]domain.User, error)
	Update(ctx context.Context, id uuid.UUID, name string, roles []string) (domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminHandler exposes account management for the back office.
type AdminHandler struct {
	Store Store
}

type safeUser struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"createdAt"`
}

type updateRequest struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func toSafe(u domain.User) safeUser {
	return safeUser{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List returns a page of accounts without credential material.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user store not configured", nil)
		return
	}
	page := common.ParsePage(r.URL.Query(), 20, 100)
	users, err := h.Store.List(r.Context(), page)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list users", nil)
		return
	}
	out := make([]safeUser, 0, len(users))
	for _, u := range users {
		out = append(out, toSafe(u))
	}
	common.JSONData(w, http.StatusOK, out)
}

// Get returns one account.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user store not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	u, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load user", nil)
		return
	}
	common.JSONData(w, http.StatusOK, toSafe(u))
}

// Update replaces name and roles on an account.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user store not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name is required", nil)
		return
	}
	u, err := h.Store.Update(r.Context(), id, strings.TrimSpace(req.Name), req.Roles)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update user", nil)
		return
	}
	common.JSONData(w, http.StatusOK, toSafe(u))
}

// Delete removes an account and its sessions.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user store not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete user", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
