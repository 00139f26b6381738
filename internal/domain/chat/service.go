package chat

import (
	"context"
	"fmt"
)

// Pusher delivers realtime events to connected users. Implemented by the
// ws hub; a no-op implementation is acceptable when realtime delivery is
// disabled.
type Pusher interface {
	PushMessage(userID string, m *Message)
	PushCount(userID, chatID string, count int)
}

// NopPusher discards all pushes.
type NopPusher struct{}

func (NopPusher) PushMessage(string, *Message)    {}
func (NopPusher) PushCount(string, string, int) {}

type Service struct {
	messages MessageRepository
	contacts ContactRepository
	pusher   Pusher
}

func NewService(messages MessageRepository, contacts ContactRepository, pusher Pusher) *Service {
	if pusher == nil {
		pusher = NopPusher{}
	}
	return &Service{messages: messages, contacts: contacts, pusher: pusher}
}

// SendMessage validates and persists a message, then pushes it to the
// receiver together with the receiver's new authoritative unread count.
// Push failures are invisible here: the hub drops frames for offline or
// slow clients and the message is still persisted.
func (s *Service) SendMessage(ctx context.Context, senderID string, req *SendRequest) (*Message, error) {
	if senderID == "" {
		return nil, fmt.Errorf("sender is required")
	}
	if req.ReceiverID == "" {
		return nil, fmt.Errorf("receiverId is required")
	}
	if req.ReceiverID == senderID {
		return nil, fmt.Errorf("cannot send a message to yourself")
	}

	m := &Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
		Image:      req.Image,
	}
	if !m.HasContent() {
		return nil, fmt.Errorf("message must contain text or an image")
	}

	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.pusher.PushMessage(m.ReceiverID, m)
	if count, err := s.messages.CountUnread(ctx, m.ReceiverID, senderID); err == nil {
		s.pusher.PushCount(m.ReceiverID, senderID, count)
	}
	return m, nil
}

// GetConversation returns the message history between userID and
// partnerID in creation order.
func (s *Service) GetConversation(ctx context.Context, userID, partnerID string, limit, offset int) ([]*Message, int, error) {
	if partnerID == "" {
		return nil, 0, fmt.Errorf("partner id is required")
	}
	return s.messages.ListConversation(ctx, userID, partnerID, limit, offset)
}

// MarkConversationRead marks all messages from partnerID to userID read
// and pushes a zeroed count so other open sessions of the same user drop
// their badge.
func (s *Service) MarkConversationRead(ctx context.Context, userID, partnerID string) error {
	if partnerID == "" {
		return fmt.Errorf("partner id is required")
	}
	if err := s.messages.MarkConversationRead(ctx, userID, partnerID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	s.pusher.PushCount(userID, partnerID, 0)
	return nil
}

// ListContacts returns the paginated, search-filtered sidebar list.
func (s *Service) ListContacts(ctx context.Context, userID, search string, limit, offset int) ([]*Contact, int, error) {
	return s.contacts.ListContacts(ctx, userID, search, limit, offset)
}
