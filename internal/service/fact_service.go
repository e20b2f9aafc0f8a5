// Package service holds the domain logic between handlers and repositories.
package service

import (
	"context"

	"factvault/internal/models"
	"factvault/internal/observability"
	"factvault/internal/repository"
)

const (
	// DefaultPerPage is the page size used when the client does not ask for one.
	DefaultPerPage = 10
	// MaxPerPage caps client-requested page sizes.
	MaxPerPage = 50
)

// Pagination describes one page of a fact listing.
type Pagination struct {
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// FactService serves fact listings and random picks.
type FactService struct {
	factRepo repository.FactRepository
}

// NewFactService returns a new FactService.
func NewFactService(factRepo repository.FactRepository) *FactService {
	return &FactService{factRepo: factRepo}
}

// List returns one page of active facts, optionally filtered by category.
// Pages beyond the last yield an empty slice with unchanged metadata.
func (s *FactService) List(ctx context.Context, category string, page, perPage int) ([]models.Fact, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	offset := (page - 1) * perPage
	facts, total, err := s.factRepo.ListActive(ctx, category, perPage, offset)
	if err != nil {
		return nil, Pagination{}, err
	}

	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}

	return facts, Pagination{
		Page:    page,
		Pages:   pages,
		PerPage: perPage,
		Total:   total,
	}, nil
}

// Categories returns the distinct categories of active facts.
func (s *FactService) Categories(ctx context.Context) ([]string, error) {
	return s.factRepo.Categories(ctx)
}

// Pick samples one active fact uniformly at random, optionally scoped to a
// category, and bumps its view counter before returning. The increment is a
// single SQL update, so concurrent picks of the same fact all land.
// Returns (nil, nil) when no active fact matches.
func (s *FactService) Pick(ctx context.Context, category string) (*models.Fact, error) {
	fact, err := s.factRepo.PickRandom(ctx, category)
	if err != nil || fact == nil {
		return nil, err
	}

	if err := s.factRepo.IncrementViewCount(ctx, fact.ID); err != nil {
		return nil, err
	}
	// Reflect the persisted increment in the response.
	fact.ViewCount++

	observability.FactViews.WithLabelValues(fact.Category).Inc()
	return fact, nil
}

// Peek returns a random active fact without touching the view counter.
// Used by the welcome endpoint.
func (s *FactService) Peek(ctx context.Context) (*models.Fact, error) {
	return s.factRepo.PickRandom(ctx, "")
}
