package chat

import "time"

// Message represents one chat message between a patient and a doctor.
// IDs are strings on the wire: server-assigned UUIDs for persisted
// messages, or a client-assigned temporary id for optimistic sends that
// have not been confirmed yet.
type Message struct {
	ID         string    `db:"id" json:"_id"`
	SenderID   string    `db:"sender_id" json:"senderId"`
	ReceiverID string    `db:"receiver_id" json:"receiverId"`
	Text       *string   `db:"text" json:"text,omitempty"`
	Image      *string   `db:"image" json:"image,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	Read       bool      `db:"read" json:"read"`
}

// HasContent reports whether the message carries a text or image payload.
// A message with neither must not be sent.
func (m *Message) HasContent() bool {
	return (m.Text != nil && *m.Text != "") || (m.Image != nil && *m.Image != "")
}

// Contact represents a chat partner in the sidebar list. LastMessage and
// LastMessageAt are denormalized for display; online state and unread
// counts are derived client-side and never stored here.
type Contact struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Role          string     `db:"role" json:"role"`
	LastMessage   *string    `db:"last_message" json:"last_message,omitempty"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}

// SendRequest is the payload for sending a message. At least one of Text
// or Image must be present.
type SendRequest struct {
	ReceiverID string  `json:"receiverId"`
	Text       *string `json:"text,omitempty"`
	Image      *string `json:"image,omitempty"`
}
