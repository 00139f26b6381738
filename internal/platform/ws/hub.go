// Package ws is the server side of the realtime channel. The Hub tracks
// one room per user id (a user may hold several connections, one per tab
// or device), relays typing signals between chat partners, pushes chat
// messages and unread counts, broadcasts the online-user snapshot, and
// publishes typed notifications.
package ws

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/chat"
	"github.com/carelink/carelink/internal/wire"
)

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single connection bound to a user.
type Client struct {
	UserID string
	Role   string
	Send   chan []byte
	hub    *Hub
	conn   Conn
}

// Hub is the central connection registry. All operations are thread-safe
// via sync.RWMutex.
type Hub struct {
	logger zerolog.Logger

	mu    sync.RWMutex
	users map[string]map[*Client]struct{} // user id -> connections
}

// NewHub creates a Hub ready to manage realtime clients.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger,
		users:  make(map[string]map[*Client]struct{}),
	}
}

// Register adds a client to its user's room and broadcasts the new
// online snapshot to everyone.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]struct{})
	}
	h.users[client.UserID][client] = struct{}{}
	h.mu.Unlock()

	h.BroadcastPresence()
}

// Unregister removes a client, closes its send channel, and broadcasts
// the updated online snapshot.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	conns, ok := h.users[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := conns[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.users, client.UserID)
	}
	close(client.Send)
	h.mu.Unlock()

	h.BroadcastPresence()
}

// OnlineUsers returns the sorted ids of all users with at least one
// connection.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BroadcastPresence sends the full online-user snapshot to every client.
// The snapshot is authoritative: clients replace their presence set
// wholesale rather than patching it.
func (h *Hub) BroadcastPresence() {
	h.sendToAll(wire.EventOnlineUsers, h.OnlineUsers())
}

// PushMessage delivers a chat message to every connection of a user.
func (h *Hub) PushMessage(userID string, m *chat.Message) {
	h.sendToUser(userID, wire.EventMessage, m)
}

// PushCount delivers an authoritative unread count for one conversation.
func (h *Hub) PushCount(userID, chatID string, count int) {
	h.sendToUser(userID, wire.EventChatCount, wire.CountPayload{ChatID: chatID, Count: count})
}

// RelayTyping forwards a typing or stop-typing signal to the receiver.
// The receiver only needs to know who is typing, so the payload is the
// sender id alone.
func (h *Hub) RelayTyping(event string, p wire.TypingPayload) {
	if event != wire.EventTyping && event != wire.EventStopTyping {
		return
	}
	h.sendToUser(p.ReceiverID, event, p.SenderID)
}

// NotifyUser pushes a typed notification payload to one user.
func (h *Hub) NotifyUser(userID, event string, payload json.RawMessage) {
	h.sendToUser(userID, event, payload)
}

// NotifyAll pushes a typed notification payload to every connected user.
func (h *Hub) NotifyAll(event string, payload json.RawMessage) {
	h.sendToAll(event, payload)
}

// ClientCount returns the total number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.users {
		n += len(conns)
	}
	return n
}

// UserOnline reports whether a user has at least one connection.
func (h *Hub) UserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

func (h *Hub) sendToUser(userID, event string, payload interface{}) {
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("ws: failed to build envelope")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("ws: failed to marshal envelope")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.users[userID] {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

func (h *Hub) sendToAll(event string, payload interface{}) {
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("ws: failed to build envelope")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("ws: failed to marshal envelope")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.users {
		for client := range conns {
			select {
			case client.Send <- data:
			default:
				// Client buffer full; skip to avoid blocking.
			}
		}
	}
}

// ProcessEnvelope handles one inbound frame from a client. Unknown and
// malformed frames are ignored; the channel stays up.
func (h *Hub) ProcessEnvelope(client *Client, env wire.Envelope) {
	switch env.Event {
	case wire.EventTyping, wire.EventStopTyping:
		var p wire.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		// The join handshake already fixed the sender's identity; do not
		// trust the payload's senderId.
		p.SenderID = client.UserID
		h.RelayTyping(env.Event, p)
	}
}
