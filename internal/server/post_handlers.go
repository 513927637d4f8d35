package server

import (
	"xchangez/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postRequest is accepted as JSON and as multipart form fields.
type postRequest struct {
	Title       string  `json:"title" form:"title"`
	Description string  `json:"description" form:"description"`
	Features    *string `json:"features" form:"features"`
	IsDraft     bool    `json:"is_draft" form:"is_draft"`
	Price       float64 `json:"price" form:"price"`
	Status      int     `json:"status" form:"status"`
	IsActive    *bool   `json:"is_active" form:"is_active"`
}

func (r postRequest) input() service.PostInput {
	return service.PostInput{
		Title:       r.Title,
		Description: r.Description,
		Features:    r.Features,
		IsDraft:     r.IsDraft,
		Price:       r.Price,
		Status:      r.Status,
		IsActive:    r.IsActive,
	}
}

// GetFeed returns the handler for one feed ordering.
// @Summary Post feeds
// @Description Published posts with their thumbnail. The following feed requires authentication.
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Success 200 {array} dto.PostView
// @Router /posts [get]
// @Router /posts/relevant [get]
// @Router /posts/recent [get]
// @Router /posts/following [get]
func (s *Server) GetFeed(kind string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := parsePagination(c, s.config.FeedDefaultSize)
		posts, err := s.postService.Feed(c.UserContext(), kind, callerID(c), page.Limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(posts)
	}
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.ByAuthor(c.UserContext(), callerID(c), authorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Post detail
// @Description Post with media, thumbnail and comment tree. Counts a visit.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} dto.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.Get(c.UserContext(), callerID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	post, err := s.postService.Create(c.UserContext(), callerID(c), req.input(), nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// CreatePostWithFiles handles POST /api/posts/with-files
func (s *Server) CreatePostWithFiles(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	files, err := readUploads(c, "files")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.Create(c.UserContext(), callerID(c), req.input(), files)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	post, err := s.postService.Update(c.UserContext(), callerID(c), id, req.input(), nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// UpdatePostWithFiles handles PUT /api/posts/:id/with-files
func (s *Server) UpdatePostWithFiles(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	files, err := readUploads(c, "files")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.Update(c.UserContext(), callerID(c), id, req.input(), files)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// AddPostVisit handles POST /api/posts/:id/visits
func (s *Server) AddPostVisit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.AddVisit(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), callerID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
