package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/pricing"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("product not found")

// Store captures the persistence methods required by the catalog.
type Store interface {
	List(ctx context.Context, page common.Page, inStockOnly bool) ([]domain.Product, error)
	Count(ctx context.Context, inStockOnly bool) (int64, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Product, error)
	ListRelated(ctx context.Context, excludeID uuid.UUID, limit int) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service serves the public catalog and admin product management.
type Service struct {
	Store Store
	Cache *Cache
	Tiers []pricing.TierSpec
	Log   zerolog.Logger
}

// ListResult is a page of products with the total count.
type ListResult struct {
	Products []domain.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// Detail is a product with its quantity tier menu and related products.
type Detail struct {
	Product domain.Product   `json:"product"`
	Tiers   []pricing.Tier   `json:"tiers"`
	Related []domain.Product `json:"related,omitempty"`
}

func listKey(page common.Page, inStockOnly bool) string {
	return fmt.Sprintf("catalog:list:%d:%d:%t", page.Number, page.Limit, inStockOnly)
}

func detailKey(slug string) string {
	return "catalog:detail:" + slug
}

// List returns a page of products, served from cache when possible.
func (s *Service) List(ctx context.Context, page common.Page, inStockOnly bool) (ListResult, error) {
	if s == nil || s.Store == nil {
		return ListResult{}, errors.New("catalog service not configured")
	}
	key := listKey(page, inStockOnly)
	var cached ListResult
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache read")
	}

	products, err := s.Store.List(ctx, page, inStockOnly)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.Store.Count(ctx, inStockOnly)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Products: products, Total: total, Page: page.Number, Limit: page.Limit}
	if err := s.Cache.SetJSON(ctx, key, result); err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache write")
	}
	return result, nil
}

// GetBySlug returns the product detail with its tier menu.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Detail, error) {
	if s == nil || s.Store == nil {
		return Detail{}, errors.New("catalog service not configured")
	}
	key := detailKey(slug)
	var cached Detail
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache read")
	}

	product, err := s.Store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, err
	}
	related, err := s.Store.ListRelated(ctx, product.ID, 4)
	if err != nil {
		s.Log.Warn().Err(err).Msg("list related products")
	}
	detail := Detail{
		Product: product,
		Tiers:   pricing.ResolveTiers(product.Price, s.Tiers),
		Related: related,
	}
	if err := s.Cache.SetJSON(ctx, key, detail); err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache write")
	}
	return detail, nil
}

// Create inserts a product and drops stale cache entries.
func (s *Service) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if s == nil || s.Store == nil {
		return domain.Product{}, errors.New("catalog service not configured")
	}
	created, err := s.Store.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidate(ctx, created.Slug)
	return created, nil
}

// Update replaces a product and drops stale cache entries.
func (s *Service) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	if s == nil || s.Store == nil {
		return domain.Product{}, errors.New("catalog service not configured")
	}
	previous, err := s.Store.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, err
	}
	updated, err := s.Store.Update(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, err
	}
	s.invalidate(ctx, previous.Slug, updated.Slug)
	return updated, nil
}

// Delete removes a product and drops stale cache entries.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("catalog service not configured")
	}
	previous, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx, previous.Slug)
	return nil
}

// invalidate drops the detail keys plus the first list pages; deeper pages
// expire with the TTL.
func (s *Service) invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs)+4)
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, detailKey(slug))
		}
	}
	for page := 1; page <= 2; page++ {
		keys = append(keys, listKey(common.Page{Number: page, Limit: 20}, true))
		keys = append(keys, listKey(common.Page{Number: page, Limit: 20}, false))
	}
	s.Cache.Invalidate(ctx, keys...)
}
