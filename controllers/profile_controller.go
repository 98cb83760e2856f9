// Package controllers file: controllers/profile_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventlink/logger"
	"eventlink/services"
)

// ProfileController shows the signed-in user and changes their picture.
type ProfileController struct {
	Sessions services.SessionServiceInterface
	Tracker  services.RSVPTrackerInterface
}

// NewProfileController creates an instance of ProfileController
func NewProfileController(sessions services.SessionServiceInterface, tracker services.RSVPTrackerInterface) *ProfileController {
	return &ProfileController{Sessions: sessions, Tracker: tracker}
}

type pictureRequest struct {
	ProfilePicture string `json:"profilePicture" form:"profilePicture"`
}

// Profile returns the user and their RSVP'd events.
func (pc *ProfileController) Profile(c *gin.Context) {
	user, err := pc.Sessions.Current(c.Request.Context())
	if err != nil {
		respondError(c, "Profile", err)
		return
	}
	if user == nil {
		respondError(c, "Profile", services.ErrNotSignedIn)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "saved": pc.Tracker.SavedEvents()})
}

// UpdatePicture stores the picked image URI. An empty URI means the picker
// was canceled and nothing changes.
func (pc *ProfileController) UpdatePicture(c *gin.Context) {
	var req pictureRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid picture.")
		return
	}

	ctx := c.Request.Context()
	user, err := pc.Sessions.UpdateProfilePicture(ctx, req.ProfilePicture)
	if err != nil {
		respondError(c, "UpdatePicture", err)
		return
	}
	if err := pc.Tracker.LoadCurrentUser(ctx); err != nil {
		logger.Warn.Printf("UpdatePicture: tracker reload failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
