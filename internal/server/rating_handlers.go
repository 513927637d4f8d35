package server

import (
	"xchangez/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RateUser handles POST /api/users/:id/ratings
func (s *Server) RateUser(c *fiber.Ctx) error {
	ratedID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Amount  int     `json:"amount"`
		Comment *string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	rating, err := s.ratingService.Create(c.UserContext(), service.CreateRatingInput{
		RaterID: callerID(c),
		RatedID: ratedID,
		Amount:  req.Amount,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rating)
}

// GetRating handles GET /api/ratings/:id
func (s *Server) GetRating(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	rating, err := s.ratingService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rating)
}

// GetUserRatings handles GET /api/users/:id/ratings
func (s *Server) GetUserRatings(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ratings, err := s.ratingService.Received(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ratings)
}

// GetGivenRatings handles GET /api/users/:id/ratings/given
func (s *Server) GetGivenRatings(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ratings, err := s.ratingService.Given(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ratings)
}

// GetAverageRating handles GET /api/users/:id/ratings/average
func (s *Server) GetAverageRating(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	avg, err := s.ratingService.Average(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user_id": userID, "average": avg})
}

// GetRatingStatus handles GET /api/users/:id/ratings/status
func (s *Server) GetRatingStatus(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	rated, err := s.ratingService.HasRated(c.UserContext(), callerID(c), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"rated": rated})
}
