package server

import (
	"factvault/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFacts handles GET /facts with pagination and optional category filter.
func (s *Server) GetFacts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 0)
	category := c.Query("category")

	facts, pagination, err := s.factService.List(c.UserContext(), category, page, perPage)
	if err != nil {
		return respondAppError(c, err)
	}
	if facts == nil {
		facts = []models.Fact{}
	}

	return c.JSON(fiber.Map{
		"facts":      facts,
		"pagination": pagination,
	})
}

// GetRandomFact handles GET /facts/random. Every pick counts as a view.
func (s *Server) GetRandomFact(c *fiber.Ctx) error {
	fact, err := s.factService.Pick(c.UserContext(), c.Query("category"))
	if err != nil {
		return respondAppError(c, err)
	}
	if fact == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("No facts found"))
	}

	return c.JSON(fact)
}

// GetCategories handles GET /facts/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.factService.Categories(c.UserContext())
	if err != nil {
		return respondAppError(c, err)
	}
	if categories == nil {
		categories = []string{}
	}

	return c.JSON(fiber.Map{
		"categories": categories,
	})
}
