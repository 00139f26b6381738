// Package realtime is the client side of the chat/presence/notification
// core: one Session per authenticated user owns the persistent
// connection and fans inbound events out to the presence set, message
// store, typing tracker, unread aggregator, notification feed, and
// contact list.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/chat"
	"github.com/carelink/carelink/internal/wire"
)

// Status is the session's connection state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

const (
	// DefaultRetryDelay is the single retry delay after a failed connect.
	DefaultRetryDelay = 5 * time.Second
	// DefaultReconnectDelay is the base delay between transport
	// reconnection attempts after an established connection drops.
	DefaultReconnectDelay = time.Second
	// DefaultMaxReconnectAttempts bounds transport reconnection.
	DefaultMaxReconnectAttempts = 5
)

// Options configures a Session.
type Options struct {
	URL    string
	Token  string
	UserID string
	Role   string

	API    ChatAPI
	Dialer Dialer
	Logger zerolog.Logger

	RetryDelay           time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	TypingIdle           time.Duration
}

// Session owns the realtime connection for one authenticated user. The
// connection handle is never exposed for writing; all traffic goes
// through the session's methods. Create with NewSession, start with
// Initialize, and always Disconnect on logout or teardown — a listener
// surviving into a successor session would double-deliver events.
type Session struct {
	opts   Options
	logger zerolog.Logger

	mu         sync.Mutex
	conn       Conn
	status     Status
	gen        int
	retryTimer *time.Timer

	writeMu sync.Mutex

	Presence      *PresenceSet
	Messages      *MessageStore
	Typing        *TypingTracker
	Unread        *UnreadCounts
	Notifications *Dispatcher
	Contacts      *ContactList
}

// NewSession creates a disconnected session with all stores ready.
func NewSession(opts Options) *Session {
	if opts.Dialer == nil {
		opts.Dialer = GorillaDialer{}
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}

	s := &Session{
		opts:          opts,
		logger:        opts.Logger,
		status:        StatusDisconnected,
		Presence:      NewPresenceSet(),
		Messages:      NewMessageStore(),
		Unread:        NewUnreadCounts(),
		Notifications: NewDispatcher(opts.Logger, 0),
		Contacts:      NewContactList(),
	}
	s.Typing = NewTypingTracker(opts.TypingIdle,
		func(partnerID string) {
			s.sendEvent(wire.EventTyping, wire.TypingPayload{SenderID: opts.UserID, ReceiverID: partnerID})
		},
		func(partnerID string) {
			s.sendEvent(wire.EventStopTyping, wire.TypingPayload{SenderID: opts.UserID, ReceiverID: partnerID})
		},
	)
	return s
}

// Status returns the current connection state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Initialize opens the connection and announces room membership.
// Idempotent: if the session already holds a live connection it is
// returned as-is, without registering a second read loop. A connect
// error is returned to the caller but also schedules a single retry
// after RetryDelay; the session never surfaces transport errors to
// event consumers.
func (s *Session) Initialize(ctx context.Context) (Conn, error) {
	s.mu.Lock()
	if s.conn != nil {
		conn := s.conn
		s.mu.Unlock()
		return conn, nil
	}
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	gen := s.gen
	s.status = StatusConnecting
	s.mu.Unlock()

	conn, err := s.connect(ctx, gen)
	if err != nil {
		s.scheduleRetry(gen)
		return nil, err
	}
	return conn, nil
}

// connect dials, installs the connection, announces the join, and starts
// the read loop.
func (s *Session) connect(ctx context.Context, gen int) (Conn, error) {
	conn, err := s.opts.Dialer.Dial(ctx, s.opts.URL, s.opts.Token)
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.status = StatusDisconnected
		}
		s.mu.Unlock()
		s.logger.Warn().Err(err).Str("url", s.opts.URL).Msg("realtime: connect failed")
		return nil, fmt.Errorf("connect: %w", err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		conn.Close()
		return nil, fmt.Errorf("session torn down during connect")
	}
	if s.conn != nil {
		existing := s.conn
		s.mu.Unlock()
		conn.Close()
		return existing, nil
	}
	s.conn = conn
	s.status = StatusConnected
	s.mu.Unlock()

	s.sendEvent(wire.EventJoinRoom, wire.JoinPayload{ID: s.opts.UserID, Role: s.opts.Role})
	go s.readLoop(gen, conn)

	s.logger.Info().Str("user_id", s.opts.UserID).Msg("realtime: connected")
	return conn, nil
}

// scheduleRetry arms a single retry after RetryDelay. Further recovery is
// the transport reconnect loop's job; after that is exhausted the session
// stays disconnected until the UI calls Initialize again.
func (s *Session) scheduleRetry(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.retryTimer != nil {
		return
	}
	s.logger.Info().Dur("delay", s.opts.RetryDelay).Msg("realtime: retry scheduled")
	s.retryTimer = time.AfterFunc(s.opts.RetryDelay, func() {
		s.mu.Lock()
		s.retryTimer = nil
		if s.gen != gen || s.conn != nil {
			s.mu.Unlock()
			return
		}
		s.status = StatusConnecting
		s.mu.Unlock()
		if _, err := s.connect(context.Background(), gen); err != nil {
			s.logger.Warn().Err(err).Msg("realtime: retry failed")
		}
	})
}

// Disconnect tears the session down: the retry timer and all typing
// timers are cancelled, the connection is closed, and the handle cleared
// so a future Initialize dials fresh instead of reusing a dead socket.
// Any in-flight read loop or timer from before the teardown is fenced
// off by the generation counter and can never deliver into this session
// again.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.gen++
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	conn := s.conn
	s.conn = nil
	s.status = StatusDisconnected
	s.mu.Unlock()

	s.Typing.Reset()
	if conn != nil {
		conn.Close()
	}
	s.logger.Info().Str("user_id", s.opts.UserID).Msg("realtime: disconnected")
}

func (s *Session) readLoop(gen int, conn Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			s.handleConnLost(gen, conn)
			return
		}
		var env wire.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			s.logger.Debug().Err(err).Msg("realtime: malformed frame dropped")
			continue
		}
		s.dispatch(env)
	}
}

func (s *Session) handleConnLost(gen int, conn Conn) {
	s.mu.Lock()
	if s.gen != gen || s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.status = StatusDisconnected
	s.mu.Unlock()

	conn.Close()
	s.logger.Warn().Msg("realtime: connection lost")
	go s.reconnect(gen)
}

// reconnect makes bounded attempts with linearly growing delay. Errors
// stay inside the session; the UI observes only the status flag.
func (s *Session) reconnect(gen int) {
	for attempt := 1; attempt <= s.opts.MaxReconnectAttempts; attempt++ {
		time.Sleep(time.Duration(attempt) * s.opts.ReconnectDelay)

		s.mu.Lock()
		if s.gen != gen || s.conn != nil {
			s.mu.Unlock()
			return
		}
		s.status = StatusConnecting
		s.mu.Unlock()

		if _, err := s.connect(context.Background(), gen); err == nil {
			s.logger.Info().Int("attempt", attempt).Msg("realtime: reconnected")
			return
		}
	}
	s.logger.Error().Int("attempts", s.opts.MaxReconnectAttempts).
		Msg("realtime: reconnect attempts exhausted; session stays disconnected until re-initialized")
}

// dispatch routes one inbound envelope. Each known event has an explicit
// case; unknown events are logged and dropped.
func (s *Session) dispatch(env wire.Envelope) {
	switch env.Event {
	case wire.EventMessage:
		var m chat.Message
		if err := json.Unmarshal(env.Data, &m); err != nil {
			s.logger.Debug().Err(err).Msg("realtime: bad message payload")
			return
		}
		s.handleInboundMessage(&m)

	case wire.EventOnlineUsers:
		var ids []string
		if err := json.Unmarshal(env.Data, &ids); err != nil {
			s.logger.Debug().Err(err).Msg("realtime: bad presence payload")
			return
		}
		s.Presence.Replace(ids)

	case wire.EventTyping:
		var senderID string
		if err := json.Unmarshal(env.Data, &senderID); err != nil {
			return
		}
		s.Typing.HandlePartnerTyping(senderID)

	case wire.EventStopTyping:
		var senderID string
		if err := json.Unmarshal(env.Data, &senderID); err != nil {
			return
		}
		s.Typing.HandlePartnerStopped(senderID)

	case wire.EventChatCount:
		var p wire.CountPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		// The server count is authoritative, but the open conversation
		// still reads as zero.
		if p.ChatID == s.Messages.ActiveConversation() {
			s.Unread.Clear(p.ChatID)
			return
		}
		s.Unread.Set(p.ChatID, p.Count)

	case wire.EventAppointment:
		s.Notifications.Dispatch(KindAppointment, env.Data)
	case wire.EventPayment:
		s.Notifications.Dispatch(KindPayment, env.Data)
	case wire.EventCampaign:
		s.Notifications.Dispatch(KindCampaign, env.Data)
	case wire.EventTestBooking:
		s.Notifications.Dispatch(KindTestBooking, env.Data)
	case wire.EventDoctor:
		s.Notifications.Dispatch(KindDoctor, env.Data)
	case wire.EventMedicalReport:
		s.Notifications.Dispatch(KindMedicalReport, env.Data)

	default:
		s.logger.Debug().Str("event", env.Event).Msg("realtime: unknown event dropped")
	}
}

// handleInboundMessage routes a pushed chat message. The unread decision
// is made here, at receipt time: a message from the open conversation
// goes straight into the store and never touches the counter.
func (s *Session) handleInboundMessage(m *chat.Message) {
	if m.ReceiverID != s.opts.UserID {
		return
	}
	if m.SenderID == s.Messages.ActiveConversation() {
		s.Messages.AppendInbound(m)
	} else {
		s.Unread.Increment(m.SenderID, 1)
	}
	s.Contacts.ApplyMessage(m, s.opts.UserID)
}

// OpenConversation makes partnerID the active conversation: its unread
// entry is cleared, history is fetched and installed, and the messages
// are marked read server-side. If the user switches away before the
// fetch resolves, the stale history is discarded.
func (s *Session) OpenConversation(ctx context.Context, partnerID string) error {
	if s.opts.API == nil {
		return fmt.Errorf("no chat API configured")
	}
	s.Messages.SetActive(partnerID)
	s.Unread.Clear(partnerID)

	history, err := s.opts.API.GetMessages(ctx, partnerID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if !s.Messages.LoadHistory(partnerID, history) {
		return nil
	}
	if err := s.opts.API.MarkRead(ctx, partnerID); err != nil {
		s.logger.Warn().Err(err).Str("partner_id", partnerID).Msg("realtime: mark read failed")
	}
	return nil
}

// CloseConversation clears the active conversation.
func (s *Session) CloseConversation() {
	s.Messages.SetActive("")
}

// SendMessage appends the draft optimistically, stops the typing
// indicator, and issues the network send. On success the optimistic
// entry is replaced in place by the confirmed message; on failure it is
// removed and the error returned so the UI can surface it. The send is
// never retried automatically.
func (s *Session) SendMessage(ctx context.Context, req *chat.SendRequest) (*chat.Message, error) {
	if s.opts.API == nil {
		return nil, fmt.Errorf("no chat API configured")
	}
	if req.ReceiverID == "" {
		return nil, fmt.Errorf("receiverId is required")
	}

	optimistic := &chat.Message{
		ID:         "tmp-" + uuid.New().String(),
		SenderID:   s.opts.UserID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
		Image:      req.Image,
		CreatedAt:  time.Now(),
	}
	if !optimistic.HasContent() {
		return nil, fmt.Errorf("message must contain text or an image")
	}

	s.Typing.NoteSend(req.ReceiverID)
	s.Messages.AppendOptimistic(optimistic)

	confirmed, err := s.opts.API.SendMessage(ctx, req)
	if err != nil {
		s.Messages.RemoveOptimistic(optimistic.ID)
		return nil, fmt.Errorf("send message: %w", err)
	}
	s.Messages.ReplaceOptimistic(optimistic.ID, confirmed)
	s.Contacts.ApplyMessage(confirmed, s.opts.UserID)
	return confirmed, nil
}

// NoteKeystroke records local typing activity toward a partner; the
// tracker decides when to emit start and stop signals.
func (s *Session) NoteKeystroke(partnerID string) {
	s.Typing.NoteKeystroke(partnerID)
}

// LoadContacts fetches one page of the sidebar list.
func (s *Session) LoadContacts(ctx context.Context, page, limit int, search string) error {
	if s.opts.API == nil {
		return fmt.Errorf("no chat API configured")
	}
	return s.Contacts.Load(ctx, s.opts.API, page, limit, search)
}

// sendEvent writes one envelope to the connection. A missing or dead
// connection is not an error for callers: the event is dropped and
// logged, and connectivity recovery is handled elsewhere.
func (s *Session) sendEvent(event string, payload interface{}) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		s.logger.Debug().Str("event", event).Msg("realtime: not connected, event dropped")
		return
	}

	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("realtime: failed to build envelope")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("realtime: failed to marshal envelope")
		return
	}

	s.writeMu.Lock()
	err = conn.WriteMessage(gorillawebsocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("realtime: write failed")
	}
}
