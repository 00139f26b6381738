// Package wire defines the event envelope and payload shapes shared by the
// realtime server hub and the client session. Every frame on the WebSocket
// is a JSON Envelope; Data carries the event-specific payload.
package wire

import "encoding/json"

// Event names exchanged over the realtime channel.
const (
	// client -> server
	EventJoinRoom   = "join-room"
	EventTyping     = "typing"
	EventStopTyping = "stop-typing"

	// server -> client
	EventMessage     = "message"
	EventOnlineUsers = "onlineUsers"
	EventChatCount   = "chatCountUpdate"
)

// Notification event names pushed by the server. Each carries a payload
// with at least an "id" field.
const (
	EventAppointment   = "appointment"
	EventPayment       = "payment"
	EventCampaign      = "campaign"
	EventTestBooking   = "test_booking"
	EventDoctor        = "doctor"
	EventMedicalReport = "medical_report"
)

// Envelope is the frame format for all realtime traffic.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an Envelope for the given event.
func NewEnvelope(event string, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// JoinPayload associates a connection with a user identity.
type JoinPayload struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// TypingPayload announces a typing start or stop between two users.
type TypingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// CountPayload is an authoritative unread-count push for one conversation.
type CountPayload struct {
	ChatID string `json:"chatId"`
	Count  int    `json:"count"`
}
