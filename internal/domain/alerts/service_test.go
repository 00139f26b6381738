package alerts

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/wire"
)

type recordingNotifier struct {
	userCalls []string
	allCalls  []string
	lastUser  string
	lastData  json.RawMessage
}

func (n *recordingNotifier) NotifyUser(userID, event string, payload json.RawMessage) {
	n.userCalls = append(n.userCalls, event)
	n.lastUser = userID
	n.lastData = payload
}

func (n *recordingNotifier) NotifyAll(event string, payload json.RawMessage) {
	n.allCalls = append(n.allCalls, event)
	n.lastData = payload
}

func TestPublishTargetedAlert(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewService(n, zerolog.Nop())

	alert, err := svc.Publish(context.Background(), &PublishRequest{
		Kind:     wire.EventAppointment,
		TargetID: "u2",
		Payload:  json.RawMessage(`{"id":"a1","date":"2026-09-01"}`),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if alert.ID != "a1" {
		t.Fatalf("expected payload id to be kept, got %s", alert.ID)
	}
	if len(n.userCalls) != 1 || n.userCalls[0] != wire.EventAppointment {
		t.Fatalf("expected one targeted push, got %v", n.userCalls)
	}
	if n.lastUser != "u2" {
		t.Fatalf("pushed to wrong user %q", n.lastUser)
	}
	if len(n.allCalls) != 0 {
		t.Fatalf("targeted alert must not broadcast")
	}
}

func TestPublishBroadcastAlert(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewService(n, zerolog.Nop())

	if _, err := svc.Publish(context.Background(), &PublishRequest{
		Kind:    wire.EventCampaign,
		Payload: json.RawMessage(`{"id":"c1","title":"flu shots"}`),
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(n.allCalls) != 1 || n.allCalls[0] != wire.EventCampaign {
		t.Fatalf("expected one broadcast, got %v", n.allCalls)
	}
	if len(n.userCalls) != 0 {
		t.Fatalf("broadcast must not target a user")
	}
}

func TestPublishGeneratesMissingID(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewService(n, zerolog.Nop())

	alert, err := svc.Publish(context.Background(), &PublishRequest{
		Kind:     wire.EventPayment,
		TargetID: "u2",
		Payload:  json.RawMessage(`{"amount":120}`),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if alert.ID == "" {
		t.Fatalf("expected generated id")
	}

	var pushed struct {
		ID     string `json:"id"`
		Amount int    `json:"amount"`
	}
	if err := json.Unmarshal(n.lastData, &pushed); err != nil {
		t.Fatalf("decode pushed payload: %v", err)
	}
	if pushed.ID != alert.ID || pushed.Amount != 120 {
		t.Fatalf("payload should carry the generated id plus original fields: %+v", pushed)
	}
}

func TestPublishRejectsUnknownKind(t *testing.T) {
	svc := NewService(&recordingNotifier{}, zerolog.Nop())
	if _, err := svc.Publish(context.Background(), &PublishRequest{
		Kind:    "lottery_win",
		Payload: json.RawMessage(`{"id":"x"}`),
	}); err == nil {
		t.Fatalf("unknown kind should be rejected")
	}
}

func TestPublishRejectsNonObjectPayload(t *testing.T) {
	svc := NewService(&recordingNotifier{}, zerolog.Nop())
	if _, err := svc.Publish(context.Background(), &PublishRequest{
		Kind:    wire.EventDoctor,
		Payload: json.RawMessage(`"just a string"`),
	}); err == nil {
		t.Fatalf("non-object payload should be rejected")
	}
}

func TestRecentKeepsBoundedHistory(t *testing.T) {
	svc := NewService(&recordingNotifier{}, zerolog.Nop())
	for i := 0; i < maxRecent+10; i++ {
		if _, err := svc.Publish(context.Background(), &PublishRequest{
			Kind:    wire.EventTestBooking,
			Payload: json.RawMessage(`{}`),
		}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if got := len(svc.Recent(context.Background())); got != maxRecent {
		t.Fatalf("expected history capped at %d, got %d", maxRecent, got)
	}
}
