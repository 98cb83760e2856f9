// file: storage/keys.go
package storage

// Keys shared with existing installs; do not rename.
const (
	KeyUsers          = "users"
	KeyCurrentUser    = "currentUser"
	KeyEvents         = "events"
	KeySelectedSchool = "selectedSchool"

	RSVPPrefix      = "rsvpEvents_"
	AttendeesPrefix = "attendees_"
)

// RSVPKey is the per-user RSVP list key.
func RSVPKey(email string) string {
	return RSVPPrefix + email
}

// AttendeesKey is the per-event attendee list key.
func AttendeesKey(eventKey string) string {
	return AttendeesPrefix + eventKey
}
