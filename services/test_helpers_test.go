// file: services/test_helpers_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventlink/models"
	"eventlink/storage"
)

var errStorageDown = errors.New("storage unavailable")

// spyStore counts transactions and can be told to fail them.
type spyStore struct {
	storage.Store
	updates   atomic.Int32
	failView  atomic.Bool
	failWrite atomic.Bool
}

func newSpyStore() *spyStore {
	return &spyStore{Store: storage.NewMemoryStore()}
}

func (s *spyStore) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s.failView.Load() {
		return errStorageDown
	}
	return s.Store.View(ctx, fn)
}

func (s *spyStore) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.updates.Add(1)
	if s.failWrite.Load() {
		return errStorageDown
	}
	return s.Store.Update(ctx, fn)
}

// recordingNotifier keeps the last attendee list per event.
type recordingNotifier struct {
	mu    sync.Mutex
	calls map[string][]models.Attendee
}

func (n *recordingNotifier) AttendeesChanged(eventKey string, attendees []models.Attendee) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = map[string][]models.Attendee{}
	}
	n.calls[eventKey] = attendees
}

func (n *recordingNotifier) last(eventKey string) ([]models.Attendee, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	a, ok := n.calls[eventKey]
	return a, ok
}

// recordingMetrics collects published values.
type recordingMetrics struct {
	mu     sync.Mutex
	rsvps  []int
	events []string
}

func (m *recordingMetrics) RSVPChanged(_ context.Context, _ string, attendees int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rsvps = append(m.rsvps, attendees)
}

func (m *recordingMetrics) EventChanged(_ context.Context, action, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, action)
}

var jane = models.User{Email: "jane@x.edu", FirstName: "Jane", LastName: "Doe", Password: "pw123"}

func signUp(t *testing.T, store storage.Store, u models.User) {
	t.Helper()
	_, err := NewUserDirectory(store, false).SignUp(context.Background(), models.SignUpRequest{
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Password:        u.Password,
		ConfirmPassword: u.Password,
	})
	require.NoError(t, err)
}

// signIn writes the session directly, as a previous app run would have.
func signIn(t *testing.T, store storage.Store, u models.User) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), func(tx storage.Tx) error {
		return storage.WriteJSON(tx, storage.KeyCurrentUser, u.Public())
	}))
}

func readList[T any](t *testing.T, store storage.Store, key string) []T {
	t.Helper()
	var out []T
	require.NoError(t, store.View(context.Background(), func(tx storage.Tx) error {
		var err error
		out, err = storage.ReadList[T](tx, key)
		return err
	}))
	return out
}

func fallMixer() models.Event {
	return models.Event{
		ID:      "evt-fall-mixer",
		Title:   "Fall Mixer",
		About:   "Meet the department",
		Address: "Bourns Hall",
		Creator: "Sam Lee",
		School:  "University of California Riverside",
		Date:    time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC),
	}
}

func newSignedInTracker(t *testing.T, store storage.Store, u models.User) *RSVPTracker {
	t.Helper()
	signIn(t, store, u)
	tracker := NewRSVPTracker(store, nil, nil)
	require.NoError(t, tracker.LoadCurrentUser(context.Background()))
	return tracker
}
