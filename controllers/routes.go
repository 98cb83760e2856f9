// Package controllers file: controllers/routes.go
package controllers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"eventlink/middleware"
	"eventlink/models"
)

// Named routes of the client's navigation.
const (
	RouteSignIn        = "/sign-in"
	RouteSignUp        = "/sign-up"
	RouteSignOut       = "/sign-out"
	RouteSchoolSelect  = "/school-select"
	RouteHome          = "/home"
	RouteCreate        = "/create"
	RouteProfile       = "/profile"
	RouteEventDetail   = "/event"
	RouteUpdateEvent   = "/update-event"
	RouteSearch        = "/search"
	RouteAttendeesList = "/attendees-list"
)

// Controllers bundles the handlers RegisterRoutes wires up.
type Controllers struct {
	Auth        *AuthController
	Events      *EventController
	RSVP        *RSVPController
	Profile     *ProfileController
	LiveUpdates http.Handler // may be nil
}

// RegisterRoutes attaches every route to the router. The router must
// already carry the sessions middleware.
func RegisterRoutes(router *gin.Engine, ctl Controllers) {
	router.GET("/health", Health)

	// Public routes
	router.POST(RouteSignUp, ctl.Auth.SignUp)
	router.POST(RouteSignIn, ctl.Auth.SignIn)
	router.POST(RouteSignOut, ctl.Auth.SignOut)
	sameUser := middleware.SessionMatches(ctl.Auth.Tracker)
	router.GET(RouteSchoolSelect, sameUser, ctl.Auth.ShowSchools)
	router.POST(RouteSchoolSelect, sameUser, ctl.Auth.SelectSchool)

	// Protected routes
	protected := router.Group("/", middleware.AuthRequired, sameUser)
	{
		protected.GET(RouteHome, ctl.Events.Home)
		protected.POST(RouteCreate, ctl.Events.Create)
		protected.GET(RouteEventDetail, ctl.Events.Detail)
		protected.GET(RouteEventDetail+"/qrcode", ctl.Events.QRCode)
		protected.POST(RouteUpdateEvent, ctl.Events.Update)
		protected.DELETE(RouteUpdateEvent, ctl.Events.Delete)
		protected.GET(RouteSearch, ctl.Events.Search)

		protected.POST("/rsvp", ctl.RSVP.RSVP)
		protected.DELETE("/rsvp", ctl.RSVP.UnRSVP)
		protected.GET("/saved", ctl.RSVP.Saved)
		protected.GET(RouteAttendeesList, ctl.RSVP.Attendees)

		protected.GET(RouteProfile, ctl.Profile.Profile)
		protected.POST(RouteProfile+"/picture", ctl.Profile.UpdatePicture)

		if ctl.LiveUpdates != nil {
			protected.GET("/ws", gin.WrapH(ctl.LiveUpdates))
		}
	}
}

// EventDetailLocation links to event-detail with the event's fields as
// query parameters, the way the screens pass an event between routes.
func EventDetailLocation(e models.Event) string {
	return RouteEventDetail + "?" + eventParams(e).Encode()
}

// UpdateEventLocation links to update-event for the event.
func UpdateEventLocation(e models.Event) string {
	return RouteUpdateEvent + "?" + eventParams(e).Encode()
}

func eventParams(e models.Event) url.Values {
	v := url.Values{}
	v.Set("key", e.Key())
	v.Set("title", e.Title)
	v.Set("date", e.Date.Format(time.RFC3339))
	v.Set("about", e.About)
	v.Set("address", e.Address)
	v.Set("creator", e.Creator)
	if e.Requirements != "" {
		v.Set("requirements", e.Requirements)
	}
	if e.ImageURI != "" {
		v.Set("imageUri", e.ImageURI)
	}
	return v
}

// eventFromParams rebuilds an event passed through route parameters.
func eventFromParams(q url.Values) models.Event {
	e := models.Event{
		Title:        q.Get("title"),
		About:        q.Get("about"),
		Address:      q.Get("address"),
		Requirements: q.Get("requirements"),
		ImageURI:     q.Get("imageUri"),
		Creator:      q.Get("creator"),
	}
	if d, err := time.Parse(time.RFC3339, q.Get("date")); err == nil {
		e.Date = d
		e.Time = d
	}
	return e
}
