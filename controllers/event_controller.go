// Package controllers file: controllers/event_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventlink/logger"
	"eventlink/models"
	"eventlink/services"
)

const defaultQRCodeSize = 256

// EventController serves home, create, event-detail, update-event and search.
type EventController struct {
	Catalog        services.EventCatalogInterface
	Sessions       services.SessionServiceInterface
	Tracker        services.RSVPTrackerInterface
	ApplicationURL string
	QRCodeEncoder  services.QRCodeEncoder
}

// NewEventController creates an instance of EventController
func NewEventController(catalog services.EventCatalogInterface, sessions services.SessionServiceInterface, tracker services.RSVPTrackerInterface, applicationURL string) *EventController {
	return &EventController{
		Catalog:        catalog,
		Sessions:       sessions,
		Tracker:        tracker,
		ApplicationURL: applicationURL,
	}
}

// Home lists the selected school's events alongside the user's RSVPs.
func (ec *EventController) Home(c *gin.Context) {
	ctx := c.Request.Context()
	school, err := ec.Sessions.SelectedSchool(ctx)
	if err != nil {
		respondError(c, "Home", err)
		return
	}
	if school == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "Please select a school.", "next": RouteSchoolSelect})
		return
	}

	events, err := ec.Catalog.ListBySchool(ctx, school)
	if err != nil {
		respondError(c, "Home", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   ec.Tracker.CurrentUser(),
		"school": school,
		"events": events,
		"saved":  ec.Tracker.SavedEvents(),
	})
}

// Create adds an event for the selected school, created by the signed-in user.
func (ec *EventController) Create(c *gin.Context) {
	var draft models.EventDraft
	if err := c.ShouldBind(&draft); err != nil {
		badRequest(c, "Invalid event form.")
		return
	}

	ctx := c.Request.Context()
	school, err := ec.Sessions.SelectedSchool(ctx)
	if err != nil {
		respondError(c, "Create", err)
		return
	}
	if school == "" {
		badRequest(c, "Please select a school before creating an event.")
		return
	}

	event, err := ec.Catalog.Create(ctx, ec.Tracker.CurrentUser(), school, draft)
	if err != nil {
		respondError(c, "Create", err)
		return
	}

	c.Header("Location", EventDetailLocation(*event))
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// Detail shows one event. The event comes from "key" or, as passed between
// screens, from its fields in the query string.
func (ec *EventController) Detail(c *gin.Context) {
	event, err := ec.lookup(c)
	if err != nil {
		respondError(c, "Detail", err)
		return
	}

	key := event.Key()
	attendees, err := ec.Tracker.Attendees(c.Request.Context(), key)
	if err != nil {
		respondError(c, "Detail", err)
		return
	}

	canEdit := false
	if user := ec.Tracker.CurrentUser(); user != nil {
		canEdit = event.CreatedBy(*user)
	}
	body := gin.H{
		"event":     event,
		"rsvped":    ec.Tracker.IsRSVPed(key),
		"attendees": attendees,
		"canEdit":   canEdit,
	}
	if canEdit {
		body["update"] = UpdateEventLocation(*event)
	}
	c.JSON(http.StatusOK, body)
}

// Update applies the form to the event named by "key". Creator only.
func (ec *EventController) Update(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "Missing event key.")
		return
	}
	var draft models.EventDraft
	if err := c.ShouldBind(&draft); err != nil {
		badRequest(c, "Invalid event form.")
		return
	}

	editor := ec.Tracker.CurrentUser()
	if editor == nil {
		respondError(c, "Update", services.ErrNotSignedIn)
		return
	}

	ctx := c.Request.Context()
	event, err := ec.Catalog.Update(ctx, *editor, key, draft)
	if err != nil {
		respondError(c, "Update", err)
		return
	}
	ec.refreshSaved(c, "Update")

	c.Header("Location", EventDetailLocation(*event))
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// Delete removes the event named by "key" and every RSVP to it. Creator only.
func (ec *EventController) Delete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "Missing event key.")
		return
	}
	editor := ec.Tracker.CurrentUser()
	if editor == nil {
		respondError(c, "Delete", services.ErrNotSignedIn)
		return
	}

	if err := ec.Catalog.Delete(c.Request.Context(), *editor, key); err != nil {
		respondError(c, "Delete", err)
		return
	}
	ec.refreshSaved(c, "Delete")

	c.JSON(http.StatusOK, gin.H{"deleted": key, "next": RouteHome})
}

// Search matches events across all schools.
func (ec *EventController) Search(c *gin.Context) {
	query := c.Query("q")
	results, err := ec.Catalog.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, "Search", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

// QRCode renders a PNG share code for the event.
func (ec *EventController) QRCode(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "Missing event key.")
		return
	}
	size := defaultQRCodeSize
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 1024 {
			badRequest(c, "Invalid size.")
			return
		}
		size = n
	}

	event, err := ec.Catalog.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, "QRCode", err)
		return
	}
	png, err := services.GenerateEventQRCode(ec.ApplicationURL, *event, size, ec.QRCodeEncoder)
	if err != nil {
		logger.Error.Printf("QRCode: Failed to generate QR code for %q: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code."})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// lookup resolves the event of a detail request. A title-only request falls
// back to the passed fields when the catalog has no such event.
func (ec *EventController) lookup(c *gin.Context) (*models.Event, error) {
	ctx := c.Request.Context()
	if key := c.Query("key"); key != "" {
		return ec.Catalog.Get(ctx, key)
	}
	passed := eventFromParams(c.Request.URL.Query())
	if passed.Title == "" {
		return nil, services.ErrEventNotFound
	}
	event, err := ec.Catalog.Get(ctx, passed.Title)
	if errors.Is(err, services.ErrEventNotFound) {
		return &passed, nil
	}
	return event, err
}

// refreshSaved reloads savedEvents after the catalog rewrote RSVP lists.
func (ec *EventController) refreshSaved(c *gin.Context, op string) {
	if err := ec.Tracker.LoadRSVPedEvents(c.Request.Context()); err != nil {
		logger.Warn.Printf("%s: reloading saved events failed: %v", op, err)
	}
}
