package service

import (
	"context"
	"fmt"
	"time"

	"estate-api/internal/core/cache"
	"estate-api/internal/domain"
)

const listingTTL = 30 * time.Second

type Listing struct {
	Properties []domain.Property `json:"properties"`
	Pagination Pagination        `json:"pagination"`
}

// PropertyService serves the public listing (cached) and moderation.
// Owner-scoped CRUD is mounted separately through the ez registrar.
type PropertyService struct {
	props domain.PropertyRepository
	cache *cache.Cache // nil disables caching
}

func NewPropertyService(props domain.PropertyRepository, c *cache.Cache) *PropertyService {
	return &PropertyService{props: props, cache: c}
}

func (s *PropertyService) ListPublished(ctx context.Context, page, limit int) (*Listing, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	load := func(ctx context.Context) (*Listing, error) {
		props, total, err := s.props.ListPublished(ctx, (page-1)*limit, limit)
		if err != nil {
			return nil, err
		}
		pages := int((total + int64(limit) - 1) / int64(limit))
		return &Listing{
			Properties: props,
			Pagination: Pagination{Page: page, Limit: limit, Total: total, Pages: pages},
		}, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	key := fmt.Sprintf("properties:published:p%d:l%d", page, limit)
	return cache.GetOrLoadJSON[Listing](s.cache, ctx, key, listingTTL, load)
}

// Archive takes a property off the market; stale cached pages age out
// within listingTTL.
func (s *PropertyService) Archive(ctx context.Context, id uint) (*domain.Property, error) {
	p, err := s.props.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPropertyNotFound
	}
	p.Status = domain.PropertyArchived
	if err := s.props.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
