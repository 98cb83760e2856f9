// Package services: services/event_catalog.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"eventlink/logger"
	"eventlink/models"
	"eventlink/storage"
)

// EventCatalogInterface is used by the event controllers.
type EventCatalogInterface interface {
	Create(ctx context.Context, creator *models.User, school string, draft models.EventDraft) (*models.Event, error)
	Get(ctx context.Context, key string) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	ListBySchool(ctx context.Context, school string) ([]models.Event, error)
	Search(ctx context.Context, query string) ([]models.Event, error)
	Update(ctx context.Context, editor models.User, key string, draft models.EventDraft) (*models.Event, error)
	Delete(ctx context.Context, editor models.User, key string) error
}

// EventCatalog keeps every school's events in one list under "events".
type EventCatalog struct {
	store   storage.Store
	metrics MetricsPublisher
	now     func() time.Time
	newID   func() string
}

// NewEventCatalog creates an EventCatalog. A nil metrics publisher records nothing.
func NewEventCatalog(store storage.Store, metrics MetricsPublisher) *EventCatalog {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &EventCatalog{
		store:   store,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Create validates the draft and appends a new event for school.
func (c *EventCatalog) Create(ctx context.Context, creator *models.User, school string, draft models.EventDraft) (*models.Event, error) {
	if err := draft.Validate(); err != nil {
		logger.Warn.Printf("Create: rejected draft: %v", err)
		return nil, err
	}

	event := models.Event{
		ID:      c.newID(),
		Creator: "Unknown User",
		School:  school,
	}
	if creator != nil {
		event.Creator = creator.DisplayName()
		event.CreatorEmail = models.NormalizeEmail(creator.Email)
	}
	draft.Apply(&event, c.now())

	err := c.store.Update(ctx, func(tx storage.Tx) error {
		events, err := storage.ReadList[models.Event](tx, storage.KeyEvents)
		if err != nil {
			return err
		}
		return storage.WriteJSON(tx, storage.KeyEvents, append(events, event))
	})
	if err != nil {
		logger.Error.Printf("Create: saving event %q failed: %v", event.Title, err)
		return nil, fmt.Errorf("create event: %w", err)
	}

	logger.Info.Printf("Create: %s created %q (%s) at %s", event.Creator, event.Title, event.ID, school)
	c.metrics.EventChanged(ctx, "Created", school)
	return &event, nil
}

// Get returns the first event with the given key.
func (c *EventCatalog) Get(ctx context.Context, key string) (*models.Event, error) {
	events, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].Key() == key {
			return &events[i], nil
		}
	}
	return nil, ErrEventNotFound
}

// List returns every event in creation order.
func (c *EventCatalog) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := c.store.View(ctx, func(tx storage.Tx) error {
		var err error
		events, err = storage.ReadList[models.Event](tx, storage.KeyEvents)
		return err
	})
	if err != nil {
		logger.Error.Printf("List: reading events failed: %v", err)
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListBySchool returns the school's events ordered by date.
func (c *EventCatalog) ListBySchool(ctx context.Context, school string) ([]models.Event, error) {
	events, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.School == school {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Search matches title, about, creator and address across all schools.
// An empty query matches nothing.
func (c *EventCatalog) Search(ctx context.Context, query string) ([]models.Event, error) {
	events, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Event{}
	for _, e := range events {
		if e.Matches(query) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Update applies the draft to every event with the key. Only the creator may
// update; school and creator never change. RSVP snapshots are refreshed in
// the same transaction.
func (c *EventCatalog) Update(ctx context.Context, editor models.User, key string, draft models.EventDraft) (*models.Event, error) {
	if err := draft.Validate(); err != nil {
		logger.Warn.Printf("Update: rejected draft for %q: %v", key, err)
		return nil, err
	}

	var updated *models.Event
	err := c.store.Update(ctx, func(tx storage.Tx) error {
		events, err := storage.ReadList[models.Event](tx, storage.KeyEvents)
		if err != nil {
			return err
		}
		matches := indexesOfEvent(events, key)
		if len(matches) == 0 {
			return ErrEventNotFound
		}
		for _, i := range matches {
			if !events[i].CreatedBy(editor) {
				return ErrNotCreator
			}
		}
		for _, i := range matches {
			draft.Apply(&events[i], c.now())
		}
		updated = &events[matches[0]]
		if err := storage.WriteJSON(tx, storage.KeyEvents, events); err != nil {
			return err
		}

		newKey := updated.Key()
		if newKey != key {
			if err := moveAttendeesTx(tx, key, newKey); err != nil {
				return err
			}
		}
		// A renamed title-keyed event may now share its key with an RSVP'd
		// event; keep one entry per key.
		return rewriteRSVPListsTx(tx, func(list []models.Event) ([]models.Event, bool) {
			out := list[:0]
			changed, seen := false, false
			for _, e := range list {
				if k := e.Key(); k == key || k == newKey {
					if k == key {
						e = *updated
						changed = true
					}
					if seen {
						changed = true
						continue
					}
					seen = true
				}
				out = append(out, e)
			}
			return out, changed
		})
	})
	if errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrNotCreator) {
		logger.Warn.Printf("Update: %s cannot update %q: %v", editor.Email, key, err)
		return nil, err
	}
	if err != nil {
		logger.Error.Printf("Update: saving %q failed: %v", key, err)
		return nil, fmt.Errorf("update event: %w", err)
	}

	logger.Info.Printf("Update: %s updated %q", editor.Email, key)
	c.metrics.EventChanged(ctx, "Updated", updated.School)
	return updated, nil
}

// Delete removes every event with the key, drops it from every user's RSVP
// list and removes its attendee collection, all in one transaction.
func (c *EventCatalog) Delete(ctx context.Context, editor models.User, key string) error {
	var school string
	err := c.store.Update(ctx, func(tx storage.Tx) error {
		events, err := storage.ReadList[models.Event](tx, storage.KeyEvents)
		if err != nil {
			return err
		}
		matches := indexesOfEvent(events, key)
		if len(matches) == 0 {
			return ErrEventNotFound
		}
		for _, i := range matches {
			if !events[i].CreatedBy(editor) {
				return ErrNotCreator
			}
		}
		school = events[matches[0]].School

		kept := events[:0]
		for _, e := range events {
			if e.Key() != key {
				kept = append(kept, e)
			}
		}
		if err := storage.WriteJSON(tx, storage.KeyEvents, kept); err != nil {
			return err
		}
		if err := tx.Remove(storage.AttendeesKey(key)); err != nil {
			return err
		}
		return rewriteRSVPListsTx(tx, func(list []models.Event) ([]models.Event, bool) {
			out := list[:0]
			for _, e := range list {
				if e.Key() != key {
					out = append(out, e)
				}
			}
			return out, len(out) != len(list)
		})
	})
	if errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrNotCreator) {
		logger.Warn.Printf("Delete: %s cannot delete %q: %v", editor.Email, key, err)
		return err
	}
	if err != nil {
		logger.Error.Printf("Delete: removing %q failed: %v", key, err)
		return fmt.Errorf("delete event: %w", err)
	}

	logger.Info.Printf("Delete: %s deleted %q", editor.Email, key)
	c.metrics.EventChanged(ctx, "Deleted", school)
	return nil
}

// ------------------- transaction helpers -------------------

func indexesOfEvent(events []models.Event, key string) []int {
	var out []int
	for i, e := range events {
		if e.Key() == key {
			out = append(out, i)
		}
	}
	return out
}

// rewriteRSVPListsTx applies fn to every user's RSVP list, writing back the
// lists fn reports as changed.
func rewriteRSVPListsTx(tx storage.Tx, fn func(list []models.Event) ([]models.Event, bool)) error {
	keys, err := tx.Keys(storage.RSVPPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		list, err := storage.ReadList[models.Event](tx, k)
		if err != nil {
			return err
		}
		if list, changed := fn(list); changed {
			if err := storage.WriteJSON(tx, k, list); err != nil {
				return err
			}
		}
	}
	return nil
}

// moveAttendeesTx renames a title-keyed event's attendee collection, merging
// it into any list already under the new key.
func moveAttendeesTx(tx storage.Tx, from, to string) error {
	moving, err := storage.ReadList[models.Attendee](tx, storage.AttendeesKey(from))
	if err != nil || len(moving) == 0 {
		return err
	}
	merged, err := storage.ReadList[models.Attendee](tx, storage.AttendeesKey(to))
	if err != nil {
		return err
	}
	for _, a := range moving {
		if indexOfAttendee(merged, a.Email) < 0 {
			merged = append(merged, a)
		}
	}
	if err := storage.WriteJSON(tx, storage.AttendeesKey(to), merged); err != nil {
		return err
	}
	return tx.Remove(storage.AttendeesKey(from))
}
