// Package controllers file: controllers/rsvp_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventlink/services"
)

// RSVPController exposes the tracker: RSVP, un-RSVP, saved events and
// attendee lists.
type RSVPController struct {
	Tracker services.RSVPTrackerInterface
	Catalog services.EventCatalogInterface
}

// NewRSVPController creates an instance of RSVPController
func NewRSVPController(tracker services.RSVPTrackerInterface, catalog services.EventCatalogInterface) *RSVPController {
	return &RSVPController{Tracker: tracker, Catalog: catalog}
}

type rsvpRequest struct {
	Key string `json:"key" form:"key"`
}

// RSVP records the signed-in user's RSVP to the event named by "key".
func (rc *RSVPController) RSVP(c *gin.Context) {
	var req rsvpRequest
	if err := c.ShouldBind(&req); err != nil || req.Key == "" {
		badRequest(c, "Missing event key.")
		return
	}

	ctx := c.Request.Context()
	event, err := rc.Catalog.Get(ctx, req.Key)
	if err != nil {
		respondError(c, "RSVP", err)
		return
	}
	if err := rc.Tracker.HandleRSVP(ctx, *event); err != nil {
		respondError(c, "RSVP", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have RSVP'd for this event!", "saved": rc.Tracker.SavedEvents()})
}

// UnRSVP withdraws the RSVP to the event named by "key". The event does not
// need to exist any more.
func (rc *RSVPController) UnRSVP(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "Missing event key.")
		return
	}
	if err := rc.Tracker.HandleUnRSVP(c.Request.Context(), key); err != nil {
		respondError(c, "UnRSVP", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have un-RSVP'd for this event!", "saved": rc.Tracker.SavedEvents()})
}

// Saved lists the signed-in user's RSVP'd events.
func (rc *RSVPController) Saved(c *gin.Context) {
	if rc.Tracker.CurrentUser() == nil {
		respondError(c, "Saved", services.ErrNotSignedIn)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": rc.Tracker.SavedEvents()})
}

// Attendees lists who RSVP'd to the event named by "key".
func (rc *RSVPController) Attendees(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "Missing event key.")
		return
	}
	attendees, err := rc.Tracker.Attendees(c.Request.Context(), key)
	if err != nil {
		respondError(c, "Attendees", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "count": len(attendees), "attendees": attendees})
}
