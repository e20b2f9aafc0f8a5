package server

import (
	"time"

	"factvault/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /profile for the authenticated user.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User not found"))
	}

	count, err := s.favService.CountForUser(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":            user,
		"favorites_count": count,
	})
}

// AdminStats handles GET /admin/stats
func (s *Server) AdminStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return respondAppError(c, err)
	}
	activeUsers, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return respondAppError(c, err)
	}
	totalFacts, err := s.factRepo.Count(ctx)
	if err != nil {
		return respondAppError(c, err)
	}
	activeFacts, err := s.factRepo.CountActive(ctx)
	if err != nil {
		return respondAppError(c, err)
	}
	totalFavorites, err := s.favoriteRepo.Count(ctx)
	if err != nil {
		return respondAppError(c, err)
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	apiCallsToday, err := s.usageRepo.CountSince(ctx, midnight)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"total_users":     totalUsers,
		"active_users":    activeUsers,
		"total_facts":     totalFacts,
		"active_facts":    activeFacts,
		"total_favorites": totalFavorites,
		"api_calls_today": apiCallsToday,
	})
}
