package server

import (
	"xchangez/internal/service"

	"github.com/gofiber/fiber/v2"
)

type sendMessageRequest struct {
	Content     string  `json:"content"`
	ContentPath *string `json:"content_path"`
}

// SendMessage handles POST /api/users/:id/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	recipientID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	msg, err := s.chatService.Send(c.UserContext(), service.SendMessageInput{
		SenderID:    callerID(c),
		RecipientID: recipientID,
		Content:     req.Content,
		ContentPath: req.ContentPath,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetMessage handles GET /api/messages/:id
func (s *Server) GetMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.chatService.Get(c.UserContext(), callerID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}

// GetConversation handles GET /api/users/:id/messages, oldest first.
func (s *Server) GetConversation(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	msgs, err := s.chatService.Conversation(c.UserContext(), callerID(c), otherID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msgs)
}
