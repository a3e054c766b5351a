package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"dating-api/internal/models"
	"dating-api/internal/push"
	"dating-api/internal/repository"

	"github.com/rs/zerolog/log"
)

// SendMessageInput is the body of a new message
type SendMessageInput struct {
	RecipientID int64  `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required,max=4000"`
}

// MessageService handles the message lifecycle
type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	notifier Notifier
}

// NewMessageService creates a new message service
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, notifier Notifier) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		notifier: notifierOrNop(notifier),
	}
}

// Send creates a message from senderID to the recipient
func (s *MessageService) Send(ctx context.Context, caller models.Caller, senderID int64, in SendMessageInput) (*models.Message, error) {
	if err := actAs(caller, senderID); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, in.RecipientID, false); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewError(models.ErrNotFound, "could not find user")
		}
		return nil, err
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: in.RecipientID,
		Content:     in.Content,
		MessageSent: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	created, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("message_id", created.ID).Int64("sender_id", senderID).Int64("recipient_id", in.RecipientID).Msg("Message sent")
	s.notifier.Notify(ctx, in.RecipientID, push.Notification{
		Type:  "message_created",
		Title: "New message from " + created.SenderKnownAs,
		Body:  created.Content,
		Data:  map[string]any{"message_id": created.ID, "sender_id": senderID},
	})
	return created, nil
}

// Get returns a message visible to userID
func (s *MessageService) Get(ctx context.Context, caller models.Caller, userID, messageID int64) (*models.Message, error) {
	if err := actAs(caller, userID); err != nil {
		return nil, err
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !msg.IsParty(userID) || msg.DeletedBy(userID) {
		return nil, models.NewError(models.ErrNotFound, "message not found")
	}
	return msg, nil
}

// MarkRead marks a message as read by its recipient
func (s *MessageService) MarkRead(ctx context.Context, caller models.Caller, userID, messageID int64) error {
	if err := actAs(caller, userID); err != nil {
		return err
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.RecipientID != userID {
		return models.NewError(models.ErrUnauthorized, "only the recipient can mark a message read")
	}
	if msg.DeletedBy(userID) {
		return models.NewError(models.ErrNotFound, "message not found")
	}

	if err := s.messages.MarkRead(ctx, messageID, time.Now().UTC()); err != nil {
		return err
	}
	s.notifier.Notify(ctx, msg.SenderID, push.Notification{
		Type: "message_read",
		Data: map[string]any{"message_id": messageID, "reader_id": userID},
	})
	return nil
}

// Delete removes the message from userID's view; it is purged once both parties deleted it
func (s *MessageService) Delete(ctx context.Context, caller models.Caller, userID, messageID int64) error {
	if err := actAs(caller, userID); err != nil {
		return err
	}
	purged, err := s.messages.DeleteForParty(ctx, messageID, userID)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			return models.NewError(models.ErrUnauthorized, "you are not a party to this message")
		}
		return err
	}
	log.Info().Int64("message_id", messageID).Int64("user_id", userID).Bool("purged", purged).Msg("Message deleted")
	return nil
}

// Thread returns the conversation between userID and otherID, oldest first
func (s *MessageService) Thread(ctx context.Context, caller models.Caller, userID, otherID int64) ([]models.Message, error) {
	if err := actAs(caller, userID); err != nil {
		return nil, err
	}
	return s.messages.Thread(ctx, userID, otherID)
}

// List returns a page of userID's messages in the container, newest first
func (s *MessageService) List(ctx context.Context, caller models.Caller, userID int64, container models.MessageContainer, page models.PageParams) (models.Page[models.Message], error) {
	if err := actAs(caller, userID); err != nil {
		return models.Page[models.Message]{}, err
	}
	page = page.Normalize()
	messages, total, err := s.messages.List(ctx, userID, container, page)
	if err != nil {
		return models.Page[models.Message]{}, err
	}
	return models.NewPage(messages, total, page), nil
}
