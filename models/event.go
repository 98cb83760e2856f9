// Package models - file: models/event.go
package models

import (
	"strings"
	"time"
)

// ------------------------ event model -----------------------

// Event is a school-scoped event. ID is generated on creation; events written
// by older installs have none and are keyed by Title instead (see Key).
type Event struct {
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title"`
	About        string    `json:"about"`
	Address      string    `json:"address"`
	Requirements string    `json:"requirements,omitempty"`
	ImageURI     string    `json:"imageUri,omitempty"`
	Creator      string    `json:"creator"`
	CreatorEmail string    `json:"creatorEmail,omitempty"`
	School       string    `json:"school"`
	Date         time.Time `json:"date"`
	Time         time.Time `json:"time"`
}

// Key identifies the event in RSVP lists and attendee collections.
// Title-keyed events with equal titles are indistinguishable.
func (e Event) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Title
}

// CreatedBy reports whether u may update or delete the event.
func (e Event) CreatedBy(u User) bool {
	if e.CreatorEmail != "" {
		return e.CreatorEmail == NormalizeEmail(u.Email)
	}
	return e.Creator == u.DisplayName()
}

// Matches is the search filter: a case-insensitive substring of title,
// about, creator or address.
func (e Event) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, field := range []string{e.Title, e.About, e.Creator, e.Address} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// --------------------- event draft ---------------------

// EventDraft carries the create/update form. Date and Time are RFC 3339;
// zero values mean "now", as the date picker defaults to today.
type EventDraft struct {
	Title        string    `json:"title" form:"title"`
	About        string    `json:"about" form:"about"`
	Address      string    `json:"address" form:"address"`
	Requirements string    `json:"requirements" form:"requirements"`
	ImageURI     string    `json:"imageUri" form:"imageUri"`
	Date         time.Time `json:"date" form:"date" time_format:"2006-01-02T15:04:05Z07:00"`
	Time         time.Time `json:"time" form:"time" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Validate requires title, about and address.
func (d EventDraft) Validate() error {
	v := &ValidationError{}
	v.require("title", d.Title)
	v.require("about", d.About)
	v.require("address", d.Address)
	return v.orNil()
}

// Apply copies the draft onto e, leaving identity, creator and school alone.
func (d EventDraft) Apply(e *Event, now time.Time) {
	e.Title = strings.TrimSpace(d.Title)
	e.About = d.About
	e.Address = d.Address
	e.Requirements = d.Requirements
	if d.ImageURI != "" {
		e.ImageURI = d.ImageURI
	}
	e.Date = d.Date
	if e.Date.IsZero() {
		e.Date = now
	}
	e.Time = d.Time
	if e.Time.IsZero() {
		e.Time = e.Date
	}
}

// --------------------- attendee ---------------------

// Attendee is one entry of an event's attendee collection.
type Attendee struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}
