package server

import (
	"xchangez/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:id/comments and returns the post's comment tree.
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	tree, err := s.commentService.Tree(c.UserContext(), callerID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tree)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.createComment(c, postID, 0)
}

// ReplyToComment handles POST /api/posts/:id/comments/:commentId/replies
func (s *Server) ReplyToComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	parentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	return s.createComment(c, postID, parentID)
}

func (s *Server) createComment(c *fiber.Ctx, postID, parentID uint) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := s.commentService.Create(c.UserContext(), service.CreateCommentInput{
		UserID:   callerID(c),
		PostID:   postID,
		ParentID: parentID,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComment handles GET /api/comments/:id
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.Get(c.UserContext(), callerID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// GetCommentTree handles GET /api/comments/:id/tree
func (s *Server) GetCommentTree(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	tree, err := s.commentService.Subtree(c.UserContext(), callerID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tree)
}

// DeleteComment handles DELETE /api/comments/:id. Replies are removed with it.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.Delete(c.UserContext(), callerID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
