package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxRecent bounds the in-memory history of published alerts.
const maxRecent = 200

// Notifier pushes events out over the realtime hub.
type Notifier interface {
	NotifyUser(userID, event string, payload json.RawMessage)
	NotifyAll(event string, payload json.RawMessage)
}

// NopNotifier drops everything. Used when the hub is not wired.
type NopNotifier struct{}

func (NopNotifier) NotifyUser(string, string, json.RawMessage) {}
func (NopNotifier) NotifyAll(string, json.RawMessage)          {}

type Service struct {
	notifier Notifier
	logger   zerolog.Logger

	mu     sync.Mutex
	recent []Alert
}

func NewService(notifier Notifier, logger zerolog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{notifier: notifier, logger: logger}
}

// Publish validates the request, stamps an id into the payload if the
// publisher omitted one, pushes the event, and records it in the recent
// history. Delivery is fire-and-forget: offline targets simply miss the
// push.
func (s *Service) Publish(ctx context.Context, req *PublishRequest) (*Alert, error) {
	if !ValidKind(req.Kind) {
		return nil, fmt.Errorf("unknown alert kind %q", req.Kind)
	}

	payload, id, err := ensureID(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	alert := Alert{
		ID:        id,
		Kind:      req.Kind,
		TargetID:  req.TargetID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if req.TargetID == "" {
		s.notifier.NotifyAll(alert.Kind, alert.Payload)
	} else {
		s.notifier.NotifyUser(req.TargetID, alert.Kind, alert.Payload)
	}

	s.mu.Lock()
	s.recent = append(s.recent, alert)
	if len(s.recent) > maxRecent {
		s.recent = s.recent[len(s.recent)-maxRecent:]
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("kind", alert.Kind).
		Str("alert_id", alert.ID).
		Str("target_id", alert.TargetID).
		Msg("alert published")
	return &alert, nil
}

// Recent returns the published history, oldest first.
func (s *Service) Recent(ctx context.Context) []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, len(s.recent))
	copy(out, s.recent)
	return out
}

// ensureID guarantees the payload is a JSON object carrying an "id"
// field, generating one when absent.
func ensureID(raw json.RawMessage) (json.RawMessage, string, error) {
	obj := make(map[string]interface{})
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, "", fmt.Errorf("payload must be a JSON object: %w", err)
		}
	}

	id, _ := obj["id"].(string)
	if id == "" {
		id = uuid.New().String()
		obj["id"] = id
		out, err := json.Marshal(obj)
		if err != nil {
			return nil, "", err
		}
		return out, id, nil
	}
	return raw, id, nil
}
