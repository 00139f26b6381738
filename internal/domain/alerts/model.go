// Package alerts is the server-side intake for typed notification
// events: appointments, payments, campaigns, test bookings, doctor
// updates, and medical reports. Other backend services publish here and
// the hub pushes the event to the targeted user, or to everyone for
// broadcast kinds like campaigns.
package alerts

import (
	"encoding/json"
	"time"

	"github.com/carelink/carelink/internal/wire"
)

// Alert is one published notification event.
type Alert struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	TargetID  string          `json:"targetId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PublishRequest is the intake body. An empty TargetID broadcasts to all
// connected users.
type PublishRequest struct {
	Kind     string          `json:"kind"`
	TargetID string          `json:"targetId"`
	Payload  json.RawMessage `json:"payload"`
}

// ValidKinds returns the accepted event kinds.
func ValidKinds() []string {
	return []string{
		wire.EventAppointment,
		wire.EventPayment,
		wire.EventCampaign,
		wire.EventTestBooking,
		wire.EventDoctor,
		wire.EventMedicalReport,
	}
}

// ValidKind reports whether kind names a known notification event.
func ValidKind(kind string) bool {
	for _, k := range ValidKinds() {
		if k == kind {
			return true
		}
	}
	return false
}
