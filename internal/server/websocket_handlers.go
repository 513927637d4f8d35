package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"xchangez/internal/models"
	"xchangez/internal/notifications"
	"xchangez/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Incoming frame types.
const (
	frameSendMessage = "sendMessage"
	frameError       = "error"
)

type incomingFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsSendMessage struct {
	RecipientID uint    `json:"recipient_id"`
	Content     string  `json:"content"`
	ContentPath *string `json:"content_path"`
}

// WebSocketUpgrade rejects plain HTTP requests on websocket routes.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketChatHandler handles WebSocket connections for real-time chat.
// Every stored message is broadcast to all connected clients as a receiveMessage frame.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			log.Printf("WebSocket Chat: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			s.handleChatFrame(s.shutdownCtx, c, message)
		}

		log.Printf("WebSocket: User %d connected to chat", userID)
		go client.WritePump()
		client.ReadPump()
	})
}

// handleChatFrame processes one frame sent by a chat client.
func (s *Server) handleChatFrame(ctx context.Context, c *notifications.Client, message []byte) {
	var frame incomingFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		replyError(c, "invalid frame")
		return
	}

	switch frame.Type {
	case frameSendMessage:
		var req wsSendMessage
		if err := json.Unmarshal(frame.Payload, &req); err != nil {
			replyError(c, "invalid sendMessage payload")
			return
		}
		_, err := s.chatService.Send(ctx, service.SendMessageInput{
			SenderID:    c.UserID,
			RecipientID: req.RecipientID,
			Content:     req.Content,
			ContentPath: req.ContentPath,
		})
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
				replyError(c, appErr.Message)
				return
			}
			log.Printf("WebSocket Chat: send failed for user %d: %v", c.UserID, err)
			replyError(c, "message could not be sent")
		}
	default:
		replyError(c, "unknown frame type")
	}
}

func replyError(c *notifications.Client, msg string) {
	frame, err := notifications.Encode(frameError, fiber.Map{"error": msg})
	if err != nil {
		return
	}
	c.TrySend([]byte(frame))
}
