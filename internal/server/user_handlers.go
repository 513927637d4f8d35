package server

import (
	"time"

	"xchangez/internal/models"
	"xchangez/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	users, err := s.userService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserStats handles GET /api/users/:id/stats
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	stats, err := s.socialService.Stats(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name      *string    `json:"name"`
		Surname   *string    `json:"surname"`
		Nick      *string    `json:"nick"`
		BirthDate *time.Time `json:"birth_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    callerID(c),
		Name:      req.Name,
		Surname:   req.Surname,
		Nick:      req.Nick,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyPrivacy handles PUT /api/users/me/privacy. An empty body makes the profile private.
func (s *Server) UpdateMyPrivacy(c *fiber.Ctx) error {
	var req struct {
		IsPrivate *bool `json:"is_private"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}
	private := true
	if req.IsPrivate != nil {
		private = *req.IsPrivate
	}

	user, err := s.userService.SetPrivacy(c.UserContext(), callerID(c), private)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyImage handles PUT /api/users/me/images/:kind with a multipart "file".
func (s *Server) UpdateMyImage(c *fiber.Ctx) error {
	kind, err := service.ParseImageKind(c.Params("kind"))
	if err != nil {
		return respondError(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("file is required"))
	}
	up, err := readUpload(fh)
	if err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.UpdateImage(c.UserContext(), callerID(c), kind, up)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
