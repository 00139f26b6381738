package realtime

import (
	"sync"
	"time"
)

// DefaultTypingIdle is how long after the last keystroke the tracker
// emits a stop-typing signal.
const DefaultTypingIdle = 3 * time.Second

// TypingTracker manages typing state in both directions.
//
// Sending side: the first keystroke for a partner emits a typing signal
// immediately and arms an idle timer; further keystrokes only reset the
// timer. The stop signal is emitted when the timer fires or when a
// message is sent, whichever comes first.
//
// Receiving side: a partner's flag is set on a start event and cleared on
// a stop event, nothing else. There is no receiver-side timeout; a lost
// stop event leaves the flag stuck until the next start/stop pair.
type TypingTracker struct {
	idle      time.Duration
	emitStart func(partnerID string)
	emitStop  func(partnerID string)

	mu       sync.Mutex
	timers   map[string]*time.Timer
	partners map[string]struct{}
}

// NewTypingTracker creates a tracker that reports state changes through
// the emit callbacks. A non-positive idle duration falls back to
// DefaultTypingIdle.
func NewTypingTracker(idle time.Duration, emitStart, emitStop func(partnerID string)) *TypingTracker {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	if emitStart == nil {
		emitStart = func(string) {}
	}
	if emitStop == nil {
		emitStop = func(string) {}
	}
	return &TypingTracker{
		idle:      idle,
		emitStart: emitStart,
		emitStop:  emitStop,
		timers:    make(map[string]*time.Timer),
		partners:  make(map[string]struct{}),
	}
}

// NoteKeystroke records local typing activity toward a partner. The first
// keystroke emits immediately; repeats only reset the idle timer.
func (t *TypingTracker) NoteKeystroke(partnerID string) {
	t.mu.Lock()
	if timer, ok := t.timers[partnerID]; ok {
		timer.Reset(t.idle)
		t.mu.Unlock()
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.idle, func() { t.expire(partnerID, timer) })
	t.timers[partnerID] = timer
	t.mu.Unlock()

	t.emitStart(partnerID)
}

// expire fires when the idle timer elapses. The pointer comparison guards
// against a stale timer firing after NoteSend or Reset already replaced
// or removed it.
func (t *TypingTracker) expire(partnerID string, self *time.Timer) {
	t.mu.Lock()
	current, ok := t.timers[partnerID]
	if !ok || current != self {
		t.mu.Unlock()
		return
	}
	delete(t.timers, partnerID)
	t.mu.Unlock()

	t.emitStop(partnerID)
}

// NoteSend records that a message was sent to the partner: the stop
// signal is emitted immediately and the pending timer cancelled, if we
// were typing at all.
func (t *TypingTracker) NoteSend(partnerID string) {
	t.mu.Lock()
	timer, ok := t.timers[partnerID]
	if ok {
		timer.Stop()
		delete(t.timers, partnerID)
	}
	t.mu.Unlock()

	if ok {
		t.emitStop(partnerID)
	}
}

// Reset cancels all pending idle timers without emitting anything. Used
// on teardown so a stale stop signal cannot fire into a dead connection
// or a successor session.
func (t *TypingTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	for id := range t.partners {
		delete(t.partners, id)
	}
}

// HandlePartnerTyping records a partner's start event.
func (t *TypingTracker) HandlePartnerTyping(partnerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partners[partnerID] = struct{}{}
}

// HandlePartnerStopped records a partner's stop event.
func (t *TypingTracker) HandlePartnerStopped(partnerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.partners, partnerID)
}

// PartnerTyping reports whether the partner is currently typing.
func (t *TypingTracker) PartnerTyping(partnerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.partners[partnerID]
	return ok
}
