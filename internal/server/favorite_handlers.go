package server

import (
	"factvault/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFavorites handles GET /favorites for the authenticated user.
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	userID := currentUserID(c)

	facts, err := s.favService.List(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	if facts == nil {
		facts = []models.Fact{}
	}

	return c.JSON(facts)
}

// AddFavorite handles POST /favorites
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		FactID uint `json:"fact_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing fact_id"))
	}
	if req.FactID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing fact_id"))
	}

	if err := s.favService.Add(c.UserContext(), userID, req.FactID); err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Added to favorites",
	})
}

// RemoveFavorite handles DELETE /favorites. The target fact ID travels in the
// request body, mirroring the POST shape.
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		FactID uint `json:"fact_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.FactID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing fact_id"))
	}

	if err := s.favService.Remove(c.UserContext(), userID, req.FactID); err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Removed from favorites",
	})
}
