// file: services/rsvp_tracker_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlink/models"
	"eventlink/storage"
)

func TestRSVPTracker_LoadingUntilFirstLoad(t *testing.T) {
	tracker := NewRSVPTracker(storage.NewMemoryStore(), nil, nil)
	assert.True(t, tracker.Loading())

	require.NoError(t, tracker.LoadCurrentUser(context.Background()))
	assert.False(t, tracker.Loading())
	assert.Nil(t, tracker.CurrentUser(), "no session means signed out")
}

func TestRSVPTracker_LoadCurrentUserFailureStillEndsLoading(t *testing.T) {
	store := newSpyStore()
	store.failView.Store(true)
	tracker := NewRSVPTracker(store, nil, nil)

	err := tracker.LoadCurrentUser(context.Background())

	assert.ErrorIs(t, err, errStorageDown)
	assert.False(t, tracker.Loading())
	assert.Nil(t, tracker.CurrentUser())
}

func TestRSVPTracker_LoadCurrentUser(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)

	user := tracker.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "jane@x.edu", user.Email)
	assert.Empty(t, user.Password)
}

func TestRSVPTracker_HandleRSVP(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{}
	metrics := &recordingMetrics{}
	signIn(t, store, jane)
	tracker := NewRSVPTracker(store, notifier, metrics)
	require.NoError(t, tracker.LoadCurrentUser(context.Background()))

	event := fallMixer()
	require.NoError(t, tracker.HandleRSVP(context.Background(), event))

	saved := tracker.SavedEvents()
	require.Len(t, saved, 1)
	assert.Equal(t, event.Key(), saved[0].Key())
	assert.True(t, tracker.IsRSVPed(event.Key()))

	stored := readList[models.Event](t, store, storage.RSVPKey("jane@x.edu"))
	assert.Equal(t, saved, stored)

	attendees := readList[models.Attendee](t, store, storage.AttendeesKey(event.Key()))
	assert.Equal(t, []models.Attendee{{Name: "Jane Doe", Email: "jane@x.edu"}}, attendees)

	notified, ok := notifier.last(event.Key())
	assert.True(t, ok)
	assert.Equal(t, attendees, notified)
	assert.Equal(t, []int{1}, metrics.rsvps)
}

func TestRSVPTracker_HandleRSVPTwiceKeepsOneEntry(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)
	event := fallMixer()

	require.NoError(t, tracker.HandleRSVP(context.Background(), event))
	require.NoError(t, tracker.HandleRSVP(context.Background(), event))

	assert.Len(t, tracker.SavedEvents(), 1)
	assert.Len(t, readList[models.Event](t, store, storage.RSVPKey(jane.Email)), 1)
	assert.Len(t, readList[models.Attendee](t, store, storage.AttendeesKey(event.Key())), 1)
}

func TestRSVPTracker_UnRSVPAfterRSVP(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{}
	signIn(t, store, jane)
	tracker := NewRSVPTracker(store, notifier, nil)
	require.NoError(t, tracker.LoadCurrentUser(context.Background()))
	event := fallMixer()

	require.NoError(t, tracker.HandleRSVP(context.Background(), event))
	require.NoError(t, tracker.HandleUnRSVP(context.Background(), event.Key()))

	assert.Empty(t, tracker.SavedEvents())
	assert.False(t, tracker.IsRSVPed(event.Key()))
	assert.Empty(t, readList[models.Event](t, store, storage.RSVPKey(jane.Email)))
	assert.Empty(t, readList[models.Attendee](t, store, storage.AttendeesKey(event.Key())))

	notified, ok := notifier.last(event.Key())
	assert.True(t, ok)
	assert.Empty(t, notified)
}

func TestRSVPTracker_UnRSVPKeepsOtherAttendees(t *testing.T) {
	store := storage.NewMemoryStore()
	event := fallMixer()
	require.NoError(t, store.Update(context.Background(), func(tx storage.Tx) error {
		return storage.WriteJSON(tx, storage.AttendeesKey(event.Key()), []models.Attendee{
			{Name: "Sam Lee", Email: "sam@x.edu"},
		})
	}))
	tracker := newSignedInTracker(t, store, jane)

	require.NoError(t, tracker.HandleRSVP(context.Background(), event))
	assert.Len(t, readList[models.Attendee](t, store, storage.AttendeesKey(event.Key())), 2)

	require.NoError(t, tracker.HandleUnRSVP(context.Background(), event.Key()))
	assert.Equal(t, []models.Attendee{{Name: "Sam Lee", Email: "sam@x.edu"}},
		readList[models.Attendee](t, store, storage.AttendeesKey(event.Key())))
}

func TestRSVPTracker_SignedOutPerformsNoWrites(t *testing.T) {
	store := newSpyStore()
	tracker := NewRSVPTracker(store, nil, nil)
	require.NoError(t, tracker.LoadCurrentUser(context.Background()))

	err := tracker.HandleRSVP(context.Background(), fallMixer())
	assert.ErrorIs(t, err, ErrNotSignedIn)
	err = tracker.HandleUnRSVP(context.Background(), "evt-fall-mixer")
	assert.ErrorIs(t, err, ErrNotSignedIn)

	assert.Zero(t, store.updates.Load())
	assert.Empty(t, tracker.SavedEvents())
}

// Jane RSVPs to "Fall Mixer", an event
// without an id, so every key is derived from its title.
func TestRSVPTracker_ScenarioTitleKeyedFallMixer(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)
	event := fallMixer()
	event.ID = ""

	require.NoError(t, tracker.HandleRSVP(context.Background(), event))

	rsvps := readList[models.Event](t, store, "rsvpEvents_jane@x.edu")
	require.Len(t, rsvps, 1)
	assert.Equal(t, "Fall Mixer", rsvps[0].Title)
	attendees := readList[models.Attendee](t, store, "attendees_Fall Mixer")
	require.Len(t, attendees, 1)
	assert.Equal(t, "jane@x.edu", attendees[0].Email)

	require.NoError(t, tracker.HandleUnRSVP(context.Background(), "Fall Mixer"))
	assert.Empty(t, readList[models.Event](t, store, "rsvpEvents_jane@x.edu"))
	assert.Empty(t, readList[models.Attendee](t, store, "attendees_Fall Mixer"))
}

// Events without ids are identified by title: two "Study Session" events at
// different schools cannot be told apart.
func TestRSVPTracker_TitleKeyedEventsAreIndistinguishable(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)
	riverside := models.Event{Title: "Study Session", School: "University of California Riverside"}
	irvine := models.Event{Title: "Study Session", School: "University of California Irvine"}

	require.NoError(t, tracker.HandleRSVP(context.Background(), riverside))

	assert.True(t, tracker.IsRSVPed(irvine.Key()), "RSVP to one counts as RSVP to the other")
	require.NoError(t, tracker.HandleRSVP(context.Background(), irvine))
	saved := tracker.SavedEvents()
	require.Len(t, saved, 1, "the second RSVP is suppressed as a duplicate")
	assert.Equal(t, riverside.School, saved[0].School)
	assert.Len(t, readList[models.Attendee](t, store, "attendees_Study Session"), 1)

	require.NoError(t, tracker.HandleUnRSVP(context.Background(), "Study Session"))
	assert.Empty(t, tracker.SavedEvents())
}

func TestRSVPTracker_IDKeyedEventsWithSameTitleAreDistinct(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)
	riverside := models.Event{ID: "a", Title: "Study Session", School: "University of California Riverside"}
	irvine := models.Event{ID: "b", Title: "Study Session", School: "University of California Irvine"}

	require.NoError(t, tracker.HandleRSVP(context.Background(), riverside))
	assert.False(t, tracker.IsRSVPed(irvine.Key()))

	require.NoError(t, tracker.HandleRSVP(context.Background(), irvine))
	assert.Len(t, tracker.SavedEvents(), 2)
	assert.Len(t, readList[models.Attendee](t, store, storage.AttendeesKey("a")), 1)
	assert.Len(t, readList[models.Attendee](t, store, storage.AttendeesKey("b")), 1)

	require.NoError(t, tracker.HandleUnRSVP(context.Background(), "a"))
	saved := tracker.SavedEvents()
	require.Len(t, saved, 1)
	assert.Equal(t, "b", saved[0].ID)
}

func TestRSVPTracker_LoadRSVPedEvents(t *testing.T) {
	store := storage.NewMemoryStore()
	event := fallMixer()
	require.NoError(t, store.Update(context.Background(), func(tx storage.Tx) error {
		return storage.WriteJSON(tx, storage.RSVPKey(jane.Email), []models.Event{event})
	}))
	tracker := newSignedInTracker(t, store, jane)

	require.NoError(t, tracker.LoadRSVPedEvents(context.Background()))

	assert.Equal(t, []models.Event{event}, tracker.SavedEvents())
}

func TestRSVPTracker_LoadRSVPedEventsWithoutUserIsNoop(t *testing.T) {
	store := newSpyStore()
	tracker := NewRSVPTracker(store, nil, nil)

	assert.NoError(t, tracker.LoadRSVPedEvents(context.Background()))
	assert.Empty(t, tracker.SavedEvents())
}

func TestRSVPTracker_LoadRSVPedEventsMalformedIsEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Update(context.Background(), func(tx storage.Tx) error {
		return tx.Set(storage.RSVPKey(jane.Email), "{not json")
	}))
	tracker := newSignedInTracker(t, store, jane)

	require.NoError(t, tracker.LoadRSVPedEvents(context.Background()))
	assert.NotNil(t, tracker.SavedEvents())
	assert.Empty(t, tracker.SavedEvents())
}

func TestRSVPTracker_LoadRSVPedEventsReadFailureKeepsState(t *testing.T) {
	store := newSpyStore()
	tracker := newSignedInTracker(t, store, jane)
	require.NoError(t, tracker.HandleRSVP(context.Background(), fallMixer()))
	before := tracker.SavedEvents()

	store.failView.Store(true)
	var err error
	assert.NotPanics(t, func() { err = tracker.LoadRSVPedEvents(context.Background()) })

	assert.ErrorIs(t, err, errStorageDown)
	assert.Equal(t, before, tracker.SavedEvents())
}

func TestRSVPTracker_WriteFailureKeepsState(t *testing.T) {
	store := newSpyStore()
	notifier := &recordingNotifier{}
	signIn(t, store, jane)
	tracker := NewRSVPTracker(store, notifier, nil)
	require.NoError(t, tracker.LoadCurrentUser(context.Background()))

	store.failWrite.Store(true)
	err := tracker.HandleRSVP(context.Background(), fallMixer())

	assert.ErrorIs(t, err, errStorageDown)
	assert.Empty(t, tracker.SavedEvents())
	_, notified := notifier.last("evt-fall-mixer")
	assert.False(t, notified)
}

// Both lists are written in one transaction: a failure while writing the
// attendee list must leave the RSVP list untouched too.
func TestRSVPTracker_PairedWritesAreAtomic(t *testing.T) {
	inner := storage.NewMemoryStore()
	store := &failingAttendeeStore{Store: inner}
	signIn(t, inner, jane)
	tracker := NewRSVPTracker(store, nil, nil)
	require.NoError(t, tracker.LoadCurrentUser(context.Background()))

	err := tracker.HandleRSVP(context.Background(), fallMixer())

	assert.ErrorIs(t, err, errStorageDown)
	assert.Empty(t, readList[models.Event](t, inner, storage.RSVPKey(jane.Email)))
	assert.Empty(t, tracker.SavedEvents())
}

func TestRSVPTracker_ConcurrentRSVPsBothSurvive(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)
	first := fallMixer()
	second := models.Event{ID: "evt-study", Title: "Study Session", School: first.School}

	var wg sync.WaitGroup
	for _, e := range []models.Event{first, second} {
		wg.Add(1)
		go func(e models.Event) {
			defer wg.Done()
			assert.NoError(t, tracker.HandleRSVP(context.Background(), e))
		}(e)
	}
	wg.Wait()

	assert.Len(t, tracker.SavedEvents(), 2)
	assert.Len(t, readList[models.Event](t, store, storage.RSVPKey(jane.Email)), 2)
	assert.True(t, tracker.IsRSVPed(first.Key()))
	assert.True(t, tracker.IsRSVPed(second.Key()))
}

func TestRSVPTracker_SignedOutClearsState(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)
	require.NoError(t, tracker.HandleRSVP(context.Background(), fallMixer()))

	tracker.SignedOut()

	assert.Nil(t, tracker.CurrentUser())
	assert.Empty(t, tracker.SavedEvents())
	// the stored list survives for the next sign-in
	assert.Len(t, readList[models.Event](t, store, storage.RSVPKey(jane.Email)), 1)
}

func TestRSVPTracker_SwitchingUserResetsSavedEvents(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)
	require.NoError(t, tracker.HandleRSVP(context.Background(), fallMixer()))

	signIn(t, store, models.User{Email: "sam@x.edu", FirstName: "Sam", LastName: "Lee"})
	require.NoError(t, tracker.LoadCurrentUser(context.Background()))

	assert.Equal(t, "sam@x.edu", tracker.CurrentUser().Email)
	assert.Empty(t, tracker.SavedEvents())
}

func TestRSVPTracker_Attendees(t *testing.T) {
	store := storage.NewMemoryStore()
	tracker := newSignedInTracker(t, store, jane)

	attendees, err := tracker.Attendees(context.Background(), "nobody-here")
	require.NoError(t, err)
	assert.Empty(t, attendees)

	require.NoError(t, tracker.HandleRSVP(context.Background(), fallMixer()))
	attendees, err = tracker.Attendees(context.Background(), "evt-fall-mixer")
	require.NoError(t, err)
	assert.Equal(t, []models.Attendee{jane.Attendee()}, attendees)
}

// failingAttendeeStore fails any write to an attendee list.
type failingAttendeeStore struct {
	storage.Store
}

func (s *failingAttendeeStore) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.Store.Update(ctx, func(tx storage.Tx) error {
		return fn(failingAttendeeTx{tx})
	})
}

type failingAttendeeTx struct {
	storage.Tx
}

func (tx failingAttendeeTx) Set(key, value string) error {
	if len(key) >= len(storage.AttendeesPrefix) && key[:len(storage.AttendeesPrefix)] == storage.AttendeesPrefix {
		return errStorageDown
	}
	return tx.Tx.Set(key, value)
}
