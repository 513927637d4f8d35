package server

import (
	"xchangez/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPostMedia handles GET /api/posts/:id/media
func (s *Server) GetPostMedia(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	media, err := s.postService.ListMedia(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(media)
}

// AttachPostMedia handles POST /api/posts/:id/media with multipart "files".
// A file whose name and extension already exist on the post replaces it.
func (s *Server) AttachPostMedia(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	files, err := readUploads(c, "files")
	if err != nil {
		return respondError(c, err)
	}
	if len(files) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("at least one file is required"))
	}

	media, err := s.postService.AttachMedia(c.UserContext(), callerID(c), postID, files)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(media)
}

// DeletePostMedia handles DELETE /api/posts/:id/media
func (s *Server) DeletePostMedia(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeleteAllMedia(c.UserContext(), callerID(c), postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteMedia handles DELETE /api/media/:id
func (s *Server) DeleteMedia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeleteMedia(c.UserContext(), callerID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
