package services

import (
	"context"
	"fmt"
	"strings"

	"circloth_server/logger"
	"circloth_server/models"
	"circloth_server/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMessageLimit is how many messages a listing returns when unspecified
const DefaultMessageLimit = 50

// ChatService stores two-party conversations and relays new messages
type ChatService struct {
	Store    store.ChatStore
	Notifier Notifier
	Clock    Clock
}

// SendMessage stores a message, creating the conversation on first use
func (s *ChatService) SendMessage(ctx context.Context, sender, receiver, content string) (*models.Message, error) {
	if sender == "" || receiver == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: sender, receiver and content are required", ErrInvalidInput)
	}

	msg := models.Message{
		ConversationID: models.ConversationID(sender, receiver),
		MessageID:      uuid.NewString(),
		Sender:         sender,
		Receiver:       receiver,
		Content:        content,
		Timestamp:      s.Clock.now(),
	}
	if err := s.save(ctx, msg, sender, receiver); err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.NotifyMessage(msg)
	}
	return &msg, nil
}

// ListMessages returns the latest messages between two users, oldest first
func (s *ChatService) ListMessages(ctx context.Context, user1, user2 string, limit int) ([]models.Message, error) {
	if user1 == "" || user2 == "" {
		return nil, fmt.Errorf("%w: both users are required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	messages, err := s.Store.ListMessages(ctx, models.ConversationID(user1, user2), limit)
	if err != nil {
		logger.Error("failed to list messages", zap.String("user1", user1), zap.String("user2", user2), zap.Error(err))
		return nil, err
	}
	return messages, nil
}

// StartConversation opens the chat between two matched users with a
// system message. System messages have no sender.
func (s *ChatService) StartConversation(ctx context.Context, user1, user2, greeting string) (string, error) {
	msg := models.Message{
		ConversationID: models.ConversationID(user1, user2),
		MessageID:      uuid.NewString(),
		Receiver:       user2,
		Content:        greeting,
		Timestamp:      s.Clock.now(),
	}
	if err := s.save(ctx, msg, user1, user2); err != nil {
		return "", err
	}
	return msg.ConversationID, nil
}

func (s *ChatService) save(ctx context.Context, msg models.Message, user1, user2 string) error {
	chat := models.Chat{
		ID:           msg.ConversationID,
		Participants: []string{user1, user2},
		Status:       models.ChatStatusActive,
		CreatedAt:    msg.Timestamp,
	}
	if err := s.Store.EnsureChat(ctx, chat); err != nil {
		return fmt.Errorf("failed to ensure chat %s: %w", chat.ID, err)
	}
	if err := s.Store.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	logger.Debug("message stored", zap.String("conversationId", msg.ConversationID), zap.String("messageId", msg.MessageID))
	return nil
}
