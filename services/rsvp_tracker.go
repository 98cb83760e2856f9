// Package services: services/rsvp_tracker.go
package services

import (
	"context"
	"fmt"
	"sync"

	"eventlink/logger"
	"eventlink/models"
	"eventlink/storage"
)

// RSVPTrackerInterface is the attendance state shared by every handler.
type RSVPTrackerInterface interface {
	LoadCurrentUser(ctx context.Context) error
	LoadRSVPedEvents(ctx context.Context) error
	HandleRSVP(ctx context.Context, event models.Event) error
	HandleUnRSVP(ctx context.Context, key string) error
	Attendees(ctx context.Context, key string) ([]models.Attendee, error)
	CurrentUser() *models.User
	SavedEvents() []models.Event
	IsRSVPed(key string) bool
	Loading() bool
	SignedOut()
}

// AttendanceNotifier is told about every committed attendee list change.
type AttendanceNotifier interface {
	AttendeesChanged(eventKey string, attendees []models.Attendee)
}

type noopNotifier struct{}

func (noopNotifier) AttendeesChanged(string, []models.Attendee) {}

// RSVPTracker tracks the signed-in user, their RSVP list (savedEvents) and
// the attendee list of every event. Both lists of an RSVP are written in the
// same store transaction, and tracker mutations are applied one at a time.
type RSVPTracker struct {
	store    storage.Store
	notifier AttendanceNotifier
	metrics  MetricsPublisher

	// writeMu serializes store round trips that end in a savedEvents update,
	// so an older result can never overwrite a newer one.
	writeMu sync.Mutex

	mu          sync.RWMutex
	currentUser *models.User
	savedEvents []models.Event
	loading     bool
}

// NewRSVPTracker creates a tracker in the loading state. notifier and
// metrics may be nil.
func NewRSVPTracker(store storage.Store, notifier AttendanceNotifier, metrics MetricsPublisher) *RSVPTracker {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &RSVPTracker{
		store:       store,
		notifier:    notifier,
		metrics:     metrics,
		savedEvents: []models.Event{},
		loading:     true,
	}
}

// ------------------- loading -------------------

// LoadCurrentUser reads the session. An absent session means signed out.
// Loading ends whether or not the read succeeds.
func (t *RSVPTracker) LoadCurrentUser(ctx context.Context) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	var user *models.User
	err := t.store.View(ctx, func(tx storage.Tx) error {
		var err error
		user, err = storage.ReadObject[models.User](tx, storage.KeyCurrentUser)
		return err
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = false
	if err != nil {
		logger.Error.Printf("LoadCurrentUser: reading session failed: %v", err)
		return fmt.Errorf("load current user: %w", err)
	}
	if user == nil || t.currentUser == nil || !sameEmail(user.Email, t.currentUser.Email) {
		t.savedEvents = []models.Event{}
	}
	t.currentUser = user
	if user != nil {
		logger.Debug.Printf("LoadCurrentUser: signed in as %s", user.Email)
	}
	return nil
}

// LoadRSVPedEvents replaces savedEvents with the stored RSVP list. Without
// a user it does nothing. On failure savedEvents keeps its value.
func (t *RSVPTracker) LoadRSVPedEvents(ctx context.Context) error {
	user := t.CurrentUser()
	if user == nil {
		return nil
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	userKey := storage.RSVPKey(user.Email)
	var events []models.Event
	err := t.store.View(ctx, func(tx storage.Tx) error {
		var err error
		events, err = storage.ReadList[models.Event](tx, userKey)
		return err
	})
	if err != nil {
		logger.Error.Printf("LoadRSVPedEvents: reading %s failed: %v", userKey, err)
		return fmt.Errorf("load rsvp events: %w", err)
	}

	t.applySavedEvents(user, events)
	logger.Debug.Printf("LoadRSVPedEvents: %d events for %s", len(events), userKey)
	return nil
}

// ------------------- rsvp -------------------

// HandleRSVP records the RSVP in the user's list and the user in the
// event's attendee list. Repeating it changes nothing.
func (t *RSVPTracker) HandleRSVP(ctx context.Context, event models.Event) error {
	user := t.CurrentUser()
	if user == nil {
		logger.Warn.Printf("HandleRSVP: no signed-in user for %q", event.Title)
		return ErrNotSignedIn
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	key := event.Key()
	userKey := storage.RSVPKey(user.Email)
	var events []models.Event
	var attendees []models.Attendee
	err := t.store.Update(ctx, func(tx storage.Tx) error {
		var err error
		if events, err = storage.ReadList[models.Event](tx, userKey); err != nil {
			return err
		}
		if !containsEvent(events, key) {
			events = append(events, event)
			if err := storage.WriteJSON(tx, userKey, events); err != nil {
				return err
			}
		}

		attendeesKey := storage.AttendeesKey(key)
		if attendees, err = storage.ReadList[models.Attendee](tx, attendeesKey); err != nil {
			return err
		}
		if indexOfAttendee(attendees, user.Email) < 0 {
			attendees = append(attendees, user.Attendee())
			return storage.WriteJSON(tx, attendeesKey, attendees)
		}
		return nil
	})
	if err != nil {
		logger.Error.Printf("HandleRSVP: saving RSVP of %s to %q failed: %v", user.Email, key, err)
		return fmt.Errorf("rsvp: %w", err)
	}

	t.applySavedEvents(user, events)
	logger.Info.Printf("HandleRSVP: %s RSVP'd to %q", user.Email, key)
	t.notifier.AttendeesChanged(key, attendees)
	t.metrics.RSVPChanged(ctx, event.School, len(attendees))
	return nil
}

// HandleUnRSVP drops the event from the user's list and the user from the
// event's attendee list.
func (t *RSVPTracker) HandleUnRSVP(ctx context.Context, key string) error {
	user := t.CurrentUser()
	if user == nil {
		logger.Warn.Printf("HandleUnRSVP: no signed-in user for %q", key)
		return ErrNotSignedIn
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	userKey := storage.RSVPKey(user.Email)
	var kept []models.Event
	var attendees []models.Attendee
	var school string
	err := t.store.Update(ctx, func(tx storage.Tx) error {
		events, err := storage.ReadList[models.Event](tx, userKey)
		if err != nil {
			return err
		}
		kept = make([]models.Event, 0, len(events))
		for _, e := range events {
			if e.Key() == key {
				school = e.School
				continue
			}
			kept = append(kept, e)
		}
		if err := storage.WriteJSON(tx, userKey, kept); err != nil {
			return err
		}

		attendeesKey := storage.AttendeesKey(key)
		list, err := storage.ReadList[models.Attendee](tx, attendeesKey)
		if err != nil {
			return err
		}
		attendees = make([]models.Attendee, 0, len(list))
		for _, a := range list {
			if !sameEmail(a.Email, user.Email) {
				attendees = append(attendees, a)
			}
		}
		return storage.WriteJSON(tx, attendeesKey, attendees)
	})
	if err != nil {
		logger.Error.Printf("HandleUnRSVP: removing RSVP of %s to %q failed: %v", user.Email, key, err)
		return fmt.Errorf("un-rsvp: %w", err)
	}

	t.applySavedEvents(user, kept)
	logger.Info.Printf("HandleUnRSVP: %s un-RSVP'd from %q", user.Email, key)
	t.notifier.AttendeesChanged(key, attendees)
	t.metrics.RSVPChanged(ctx, school, len(attendees))
	return nil
}

// Attendees returns the event's attendee list; empty when none is stored.
func (t *RSVPTracker) Attendees(ctx context.Context, key string) ([]models.Attendee, error) {
	var attendees []models.Attendee
	err := t.store.View(ctx, func(tx storage.Tx) error {
		var err error
		attendees, err = storage.ReadList[models.Attendee](tx, storage.AttendeesKey(key))
		return err
	})
	if err != nil {
		logger.Error.Printf("Attendees: reading %q failed: %v", key, err)
		return nil, fmt.Errorf("attendees: %w", err)
	}
	return attendees, nil
}

// ------------------- state accessors -------------------

// CurrentUser returns a copy of the signed-in user, or nil.
func (t *RSVPTracker) CurrentUser() *models.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.currentUser == nil {
		return nil
	}
	u := *t.currentUser
	return &u
}

// SavedEvents returns a copy of the current user's RSVP list.
func (t *RSVPTracker) SavedEvents() []models.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Event{}, t.savedEvents...)
}

// IsRSVPed reports whether savedEvents holds the event key.
func (t *RSVPTracker) IsRSVPed(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return containsEvent(t.savedEvents, key)
}

// Loading is true until the first LoadCurrentUser finishes.
func (t *RSVPTracker) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loading
}

// SignedOut forgets the user and their RSVP list.
func (t *RSVPTracker) SignedOut() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentUser = nil
	t.savedEvents = []models.Event{}
}

// applySavedEvents stores events unless the user changed meanwhile.
func (t *RSVPTracker) applySavedEvents(user *models.User, events []models.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.currentUser == nil || !sameEmail(t.currentUser.Email, user.Email) {
		logger.Debug.Printf("applySavedEvents: user changed, dropping result for %s", user.Email)
		return
	}
	t.savedEvents = append([]models.Event{}, events...)
}

func containsEvent(events []models.Event, key string) bool {
	for _, e := range events {
		if e.Key() == key {
			return true
		}
	}
	return false
}

func indexOfAttendee(attendees []models.Attendee, email string) int {
	for i, a := range attendees {
		if sameEmail(a.Email, email) {
			return i
		}
	}
	return -1
}

func sameEmail(a, b string) bool {
	return models.NormalizeEmail(a) == models.NormalizeEmail(b)
}
