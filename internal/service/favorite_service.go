package service

import (
	"context"

	"factvault/internal/models"
	"factvault/internal/repository"
)

// FavoriteService enforces the at-most-one (user, fact) bookmark relationship.
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	factRepo     repository.FactRepository
}

// NewFavoriteService returns a new FavoriteService.
func NewFavoriteService(favoriteRepo repository.FavoriteRepository, factRepo repository.FactRepository) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo, factRepo: factRepo}
}

// List returns the user's favorited facts, excluding deactivated facts.
func (s *FavoriteService) List(ctx context.Context, userID uint) ([]models.Fact, error) {
	return s.favoriteRepo.ListActiveFacts(ctx, userID)
}

// Add bookmarks the fact for the user.
// Outcomes: nil on success, NOT_FOUND when the fact is missing or inactive,
// CONFLICT when the pair already exists. The existence pre-check is only a
// courtesy; two racing adds are decided by the unique constraint, which maps
// to the same CONFLICT outcome.
func (s *FavoriteService) Add(ctx context.Context, userID, factID uint) error {
	fact, err := s.factRepo.GetByID(ctx, factID)
	if err != nil {
		return err
	}
	if fact == nil || !fact.IsActive {
		return models.NewNotFoundError("Fact not found")
	}

	exists, err := s.favoriteRepo.Exists(ctx, userID, factID)
	if err != nil {
		return err
	}
	if exists {
		return models.NewConflictError("Already in favorites")
	}

	return s.favoriteRepo.Create(ctx, &models.Favorite{
		UserID: userID,
		FactID: factID,
	})
}

// Remove deletes the bookmark. The first remove for an existing pair succeeds;
// any later one reports NOT_FOUND.
func (s *FavoriteService) Remove(ctx context.Context, userID, factID uint) error {
	deleted, err := s.favoriteRepo.Delete(ctx, userID, factID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Not in favorites")
	}
	return nil
}

// CountForUser returns how many facts the user has favorited.
func (s *FavoriteService) CountForUser(ctx context.Context, userID uint) (int64, error) {
	return s.favoriteRepo.CountForUser(ctx, userID)
}
