package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/wire"
)

// Kind tags a server-pushed notification with its event type.
type Kind string

const (
	KindAppointment   Kind = wire.EventAppointment
	KindPayment       Kind = wire.EventPayment
	KindCampaign      Kind = wire.EventCampaign
	KindTestBooking   Kind = wire.EventTestBooking
	KindDoctor        Kind = wire.EventDoctor
	KindMedicalReport Kind = wire.EventMedicalReport
)

// Kinds returns the fixed set of notification kinds the dispatcher
// understands, in dispatch order.
func Kinds() []Kind {
	return []Kind{
		KindAppointment,
		KindPayment,
		KindCampaign,
		KindTestBooking,
		KindDoctor,
		KindMedicalReport,
	}
}

// Notification is one entry in the generic notification feed.
type Notification struct {
	Kind       Kind            `json:"kind"`
	ID         string          `json:"id"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Dispatcher tags typed server events and forwards them into the feed.
// Malformed payloads (missing the id field) are logged as a warning but
// still forwarded: partial information beats a silent drop.
type Dispatcher struct {
	logger zerolog.Logger

	mu   sync.Mutex
	feed []Notification
	max  int
}

// NewDispatcher creates a Dispatcher that keeps at most maxFeed entries,
// evicting the oldest. A non-positive maxFeed keeps 100.
func NewDispatcher(logger zerolog.Logger, maxFeed int) *Dispatcher {
	if maxFeed <= 0 {
		maxFeed = 100
	}
	return &Dispatcher{logger: logger, max: maxFeed}
}

// Dispatch tags the payload and appends it to the feed.
func (d *Dispatcher) Dispatch(kind Kind, payload json.RawMessage) {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil || probe.ID == "" {
		d.logger.Warn().
			Str("kind", string(kind)).
			RawJSON("payload", nonNilJSON(payload)).
			Msg("realtime: notification payload missing id, forwarding anyway")
	}

	n := Notification{
		Kind:       kind,
		ID:         probe.ID,
		ReceivedAt: time.Now(),
		Payload:    payload,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.feed = append(d.feed, n)
	if len(d.feed) > d.max {
		d.feed = d.feed[len(d.feed)-d.max:]
	}
}

// Feed returns a copy of the notification feed, oldest first.
func (d *Dispatcher) Feed() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Notification, len(d.feed))
	copy(out, d.feed)
	return out
}

// Clear empties the feed.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.feed = nil
}

func nonNilJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
