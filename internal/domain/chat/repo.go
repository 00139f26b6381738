package chat

import "context"

// MessageRepository persists chat messages and answers the conversation
// queries the service needs.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// ListConversation returns messages exchanged between two users in
	// creation order (oldest first).
	ListConversation(ctx context.Context, userID, partnerID string, limit, offset int) ([]*Message, int, error)
	// MarkConversationRead flags every message from partnerID to userID
	// as read.
	MarkConversationRead(ctx context.Context, userID, partnerID string) error
	// CountUnread returns the number of unread messages sent by
	// partnerID to userID.
	CountUnread(ctx context.Context, userID, partnerID string) (int, error)
}

// ContactRepository lists chat partners for the sidebar.
type ContactRepository interface {
	// ListContacts returns users the given user can chat with, filtered
	// by a case-insensitive name search, with the last exchanged message
	// denormalized onto each entry.
	ListContacts(ctx context.Context, userID, search string, limit, offset int) ([]*Contact, int, error)
}
