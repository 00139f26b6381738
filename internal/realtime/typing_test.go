package realtime

import (
	"sync"
	"testing"
	"time"
)

type emitRecorder struct {
	mu     sync.Mutex
	starts []string
	stops  []string
}

func (r *emitRecorder) start(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, id)
}

func (r *emitRecorder) stop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = append(r.stops, id)
}

func (r *emitRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts), len(r.stops)
}

func TestFirstKeystrokeEmitsImmediately(t *testing.T) {
	rec := &emitRecorder{}
	tr := NewTypingTracker(time.Hour, rec.start, rec.stop)

	tr.NoteKeystroke("u2")
	tr.NoteKeystroke("u2")
	tr.NoteKeystroke("u2")

	starts, stops := rec.counts()
	if starts != 1 {
		t.Fatalf("expected exactly one start signal, got %d", starts)
	}
	if stops != 0 {
		t.Fatalf("expected no stop signal while still typing, got %d", stops)
	}
}

func TestIdleTimerEmitsStop(t *testing.T) {
	rec := &emitRecorder{}
	tr := NewTypingTracker(30*time.Millisecond, rec.start, rec.stop)

	tr.NoteKeystroke("u2")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, stops := rec.counts(); stops == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("idle timer never emitted stop")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// After expiry the next keystroke is a fresh start.
	tr.NoteKeystroke("u2")
	if starts, _ := rec.counts(); starts != 2 {
		t.Fatalf("keystroke after expiry should re-emit start, got %d starts", starts)
	}
}

func TestKeystrokeResetsIdleTimer(t *testing.T) {
	rec := &emitRecorder{}
	tr := NewTypingTracker(60*time.Millisecond, rec.start, rec.stop)

	tr.NoteKeystroke("u2")
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		tr.NoteKeystroke("u2")
	}
	if _, stops := rec.counts(); stops != 0 {
		t.Fatalf("continuous typing must not emit stop, got %d", stops)
	}
}

func TestNoteSendEmitsStopImmediately(t *testing.T) {
	rec := &emitRecorder{}
	tr := NewTypingTracker(time.Hour, rec.start, rec.stop)

	tr.NoteKeystroke("u2")
	tr.NoteSend("u2")

	starts, stops := rec.counts()
	if starts != 1 || stops != 1 {
		t.Fatalf("expected 1 start and 1 stop, got %d/%d", starts, stops)
	}

	// Sending without having typed emits nothing.
	tr.NoteSend("u3")
	if _, stops := rec.counts(); stops != 1 {
		t.Fatalf("send without typing must not emit stop, got %d", stops)
	}
}

func TestPartnersTrackedIndependently(t *testing.T) {
	rec := &emitRecorder{}
	tr := NewTypingTracker(time.Hour, rec.start, rec.stop)

	tr.NoteKeystroke("u2")
	tr.NoteKeystroke("u3")
	tr.NoteSend("u2")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.starts) != 2 {
		t.Fatalf("expected starts for both partners, got %v", rec.starts)
	}
	if len(rec.stops) != 1 || rec.stops[0] != "u2" {
		t.Fatalf("expected single stop for u2, got %v", rec.stops)
	}
}

func TestResetCancelsWithoutEmitting(t *testing.T) {
	rec := &emitRecorder{}
	tr := NewTypingTracker(30*time.Millisecond, rec.start, rec.stop)

	tr.NoteKeystroke("u2")
	tr.HandlePartnerTyping("u3")
	tr.Reset()

	time.Sleep(100 * time.Millisecond)
	if _, stops := rec.counts(); stops != 0 {
		t.Fatalf("reset must swallow pending stop signals, got %d", stops)
	}
	if tr.PartnerTyping("u3") {
		t.Fatalf("reset should clear partner flags")
	}
}

func TestPartnerTypingIsEventDriven(t *testing.T) {
	tr := NewTypingTracker(10*time.Millisecond, nil, nil)

	tr.HandlePartnerTyping("u2")
	time.Sleep(50 * time.Millisecond)
	if !tr.PartnerTyping("u2") {
		t.Fatalf("partner flag must not decay on a timer")
	}
	tr.HandlePartnerStopped("u2")
	if tr.PartnerTyping("u2") {
		t.Fatalf("stop event should clear the flag")
	}
}
