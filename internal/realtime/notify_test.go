package realtime

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestDispatchTagsByKind(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 0)

	d.Dispatch(KindAppointment, json.RawMessage(`{"id":"a1","date":"2026-09-01"}`))
	d.Dispatch(KindPayment, json.RawMessage(`{"id":"p1","amount":120}`))

	feed := d.Feed()
	if len(feed) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(feed))
	}
	if feed[0].Kind != KindAppointment || feed[0].ID != "a1" {
		t.Fatalf("first entry mis-tagged: %+v", feed[0])
	}
	if feed[1].Kind != KindPayment || feed[1].ID != "p1" {
		t.Fatalf("second entry mis-tagged: %+v", feed[1])
	}
}

func TestDispatchForwardsPayloadMissingID(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 0)

	d.Dispatch(KindCampaign, json.RawMessage(`{"title":"flu shots"}`))
	d.Dispatch(KindDoctor, json.RawMessage(`not json`))

	feed := d.Feed()
	if len(feed) != 2 {
		t.Fatalf("malformed payloads must still be forwarded, got %d entries", len(feed))
	}
	if feed[0].ID != "" || feed[1].ID != "" {
		t.Fatalf("missing ids should stay empty, got %q/%q", feed[0].ID, feed[1].ID)
	}
}

func TestFeedEvictsOldest(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 3)
	for _, id := range []string{"n1", "n2", "n3", "n4"} {
		d.Dispatch(KindTestBooking, json.RawMessage(`{"id":"`+id+`"}`))
	}
	feed := d.Feed()
	if len(feed) != 3 {
		t.Fatalf("expected capped feed of 3, got %d", len(feed))
	}
	if feed[0].ID != "n2" || feed[2].ID != "n4" {
		t.Fatalf("oldest entry should be evicted, got %s..%s", feed[0].ID, feed[2].ID)
	}
}

func TestKindsCoverAllEvents(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 6 {
		t.Fatalf("expected 6 notification kinds, got %d", len(kinds))
	}
	seen := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate kind %s", k)
		}
		seen[k] = struct{}{}
	}
}
