// Package websocket - websocket/messenger.go
package websocket

import (
	"context"

	"eventlink/models"
)

// AttendeeSource provides the attendee list sent when a client subscribes.
// services.RSVPTracker satisfies it.
type AttendeeSource interface {
	Attendees(ctx context.Context, key string) ([]models.Attendee, error)
}

// AttendeesMessage is the only message clients receive.
type AttendeesMessage struct {
	Action    string            `json:"action"`
	EventKey  string            `json:"eventKey"`
	Count     int               `json:"count"`
	Attendees []models.Attendee `json:"attendees"`
}

func newAttendeesMessage(eventKey string, attendees []models.Attendee) AttendeesMessage {
	if attendees == nil {
		attendees = []models.Attendee{}
	}
	return AttendeesMessage{
		Action:    "attendeesChanged",
		EventKey:  eventKey,
		Count:     len(attendees),
		Attendees: attendees,
	}
}
