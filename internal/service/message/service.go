package message

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"freework/internal/apperr"
	"freework/internal/events"
	"freework/internal/model"
	"freework/internal/repository"
	"freework/pkg/rbac"
)

const defaultListLimit = 200

type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
}

type Store interface {
	Insert(ctx context.Context, m *model.Message) error
	ListConversation(ctx context.Context, userA, userB, limit int) ([]model.Message, error)
	MarkRead(ctx context.Context, id, recipientID int) error
}

type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Service struct {
	users     UserStore
	messages  Store
	publisher Publisher
	logger    *zap.Logger
}

func NewService(users UserStore, messages Store, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		messages:  messages,
		publisher: publisher,
		logger:    logger,
	}
}

type SendInput struct {
	RecipientID int    `json:"recipient_id"`
	Body        string `json:"body"`
}

func (s *Service) Send(ctx context.Context, ident model.Identity, in SendInput) (*model.Message, error) {
	if err := rbac.CheckPermission(ident.Role, rbac.ActionMessageSend); err != nil {
		return nil, apperr.Forbidden("caller may not send messages")
	}

	v := apperr.NewValidation()
	if in.RecipientID <= 0 {
		v.Add("recipient_id", "must be a positive integer")
	}
	if strings.TrimSpace(in.Body) == "" {
		v.Add("body", "must not be empty")
	}
	if in.RecipientID == ident.UserID {
		v.Add("recipient_id", "cannot message yourself")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, in.RecipientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("recipient")
		}
		return nil, apperr.Internal(err)
	}

	m := &model.Message{
		SenderID:    ident.UserID,
		RecipientID: in.RecipientID,
		Body:        in.Body,
	}
	if err := s.messages.Insert(ctx, m); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.publisher.Publish(events.MessageSent, events.MessageSentPayload{
		MessageID:   m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
	}); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("routing_key", events.MessageSent),
			zap.Error(err),
		)
	}
	return m, nil
}

// Conversation returns the thread between the caller and another user.
func (s *Service) Conversation(ctx context.Context, ident model.Identity, otherID, limit int) ([]model.Message, error) {
	if otherID <= 0 {
		return nil, apperr.NewValidation().Add("user_id", "must be a positive integer")
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	messages, err := s.messages.ListConversation(ctx, ident.UserID, otherID, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return messages, nil
}

// MarkRead flips the read flag on a message addressed to the caller.
func (s *Service) MarkRead(ctx context.Context, ident model.Identity, id int) error {
	if id <= 0 {
		return apperr.NewValidation().Add("id", "must be a positive integer")
	}

	if err := s.messages.MarkRead(ctx, id, ident.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("message")
		}
		return apperr.Internal(err)
	}
	return nil
}
