package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eventlink/models"
)

// Ensure the mocks implement their interfaces
var _ RSVPTrackerInterface = (*MockRSVPTracker)(nil)
var _ EventCatalogInterface = (*MockEventCatalog)(nil)

// MockRSVPTracker is a mock implementation for controller tests.
type MockRSVPTracker struct {
	mock.Mock
}

func (m *MockRSVPTracker) LoadCurrentUser(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRSVPTracker) LoadRSVPedEvents(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRSVPTracker) HandleRSVP(ctx context.Context, event models.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockRSVPTracker) HandleUnRSVP(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockRSVPTracker) Attendees(ctx context.Context, key string) ([]models.Attendee, error) {
	args := m.Called(ctx, key)
	attendees, _ := args.Get(0).([]models.Attendee)
	return attendees, args.Error(1)
}

func (m *MockRSVPTracker) CurrentUser() *models.User {
	user, _ := m.Called().Get(0).(*models.User)
	return user
}

func (m *MockRSVPTracker) SavedEvents() []models.Event {
	events, _ := m.Called().Get(0).([]models.Event)
	return events
}

func (m *MockRSVPTracker) IsRSVPed(key string) bool {
	return m.Called(key).Bool(0)
}

func (m *MockRSVPTracker) Loading() bool {
	return m.Called().Bool(0)
}

func (m *MockRSVPTracker) SignedOut() {
	m.Called()
}

// MockEventCatalog (Mocked)
type MockEventCatalog struct {
	mock.Mock
}

func (m *MockEventCatalog) Create(ctx context.Context, creator *models.User, school string, draft models.EventDraft) (*models.Event, error) {
	args := m.Called(ctx, creator, school, draft)
	event, _ := args.Get(0).(*models.Event)
	return event, args.Error(1)
}

func (m *MockEventCatalog) Get(ctx context.Context, key string) (*models.Event, error) {
	args := m.Called(ctx, key)
	event, _ := args.Get(0).(*models.Event)
	return event, args.Error(1)
}

func (m *MockEventCatalog) List(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func (m *MockEventCatalog) ListBySchool(ctx context.Context, school string) ([]models.Event, error) {
	args := m.Called(ctx, school)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func (m *MockEventCatalog) Search(ctx context.Context, query string) ([]models.Event, error) {
	args := m.Called(ctx, query)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func (m *MockEventCatalog) Update(ctx context.Context, editor models.User, key string, draft models.EventDraft) (*models.Event, error) {
	args := m.Called(ctx, editor, key, draft)
	event, _ := args.Get(0).(*models.Event)
	return event, args.Error(1)
}

func (m *MockEventCatalog) Delete(ctx context.Context, editor models.User, key string) error {
	return m.Called(ctx, editor, key).Error(0)
}
