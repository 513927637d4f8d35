package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	follow, err := s.socialService.Follow(c.UserContext(), callerID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.socialService.Unfollow(c.UserContext(), callerID(c), targetID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollow handles GET /api/follows/:id
func (s *Server) GetFollow(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	follow, err := s.socialService.GetFollow(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(follow)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	followers, err := s.socialService.Followers(c.UserContext(), callerID(c), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(followers)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	following, err := s.socialService.Following(c.UserContext(), callerID(c), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(following)
}

// GetFollowStatus handles GET /api/users/:id/follow-status
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	following, err := s.socialService.IsFollowing(c.UserContext(), callerID(c), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}
