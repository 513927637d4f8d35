package service

import (
	"context"
	"log/slog"

	"xchangez/internal/dto"
	"xchangez/internal/models"
	"xchangez/internal/notifications"
	"xchangez/internal/observability"
	"xchangez/internal/repository"
	"xchangez/internal/validation"

	"gorm.io/gorm"
)

const (
	maxMessageLen         = 2000
	defaultConversationSz = 50
	maxConversationSz     = 200
)

type ChatService struct {
	messages *repository.MessageStore
	users    *repository.UserStore
	notify   Notifier
}

type SendMessageInput struct {
	SenderID    uint
	RecipientID uint
	Content     string
	ContentPath *string
}

func NewChatService(db *gorm.DB, notify Notifier) *ChatService {
	return &ChatService{
		messages: repository.NewMessageStore(db),
		users:    repository.NewUserStore(db),
		notify:   notify,
	}
}

// Send stores a message to RecipientID and broadcasts it to every chat client.
func (s *ChatService) Send(ctx context.Context, in SendMessageInput) (*dto.MessageView, error) {
	if err := validation.ValidateText("content", in.Content, in.ContentPath == nil, maxMessageLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.users.Get(ctx, in.RecipientID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		UserID:      in.SenderID,
		GroupID:     in.RecipientID,
		Content:     in.Content,
		ContentPath: in.ContentPath,
	}
	if _, err := s.messages.Begin().Create(msg).Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.ChatMessagesTotal.Inc()

	view, err := s.messages.View(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	s.broadcast(ctx, view)
	return &view, nil
}

func (s *ChatService) broadcast(ctx context.Context, view dto.MessageView) {
	if s.notify == nil {
		return
	}
	payload, err := notifications.Encode(notifications.TypeReceiveMessage, view)
	if err == nil {
		err = s.notify.ToAll(ctx, payload)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to broadcast chat message", "message_id", view.ID, "err", err)
	}
}

// Get returns a message to its sender or recipient. Anyone else gets a not-found error.
func (s *ChatService) Get(ctx context.Context, viewerID, id uint) (*dto.MessageView, error) {
	view, err := s.messages.View(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.UserID != viewerID && view.GroupID != viewerID {
		return nil, models.NewNotFoundError("Message", id)
	}
	return &view, nil
}

// Conversation pages through the messages between userID and otherID, oldest first.
func (s *ChatService) Conversation(ctx context.Context, userID, otherID uint, limit, offset int) ([]dto.MessageView, error) {
	if _, err := s.users.Get(ctx, otherID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultConversationSz
	}
	if limit > maxConversationSz {
		limit = maxConversationSz
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.Query(ctx, repository.Filter{
		Where: repository.Where("(user_id = ? AND group_id = ?) OR (user_id = ? AND group_id = ?)",
			userID, otherID, otherID, userID),
		OrderBy: "created_at ASC, id ASC",
		Limit:   limit,
		Offset:  offset,
	})
}
