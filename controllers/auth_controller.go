// Package controllers file: controllers/auth_controller.go
package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"eventlink/logger"
	"eventlink/models"
	"eventlink/services"
)

// AuthController handles sign-up, sign-in, sign-out and school selection.
type AuthController struct {
	Users    services.UserDirectoryInterface
	Sessions services.SessionServiceInterface
	Tracker  services.RSVPTrackerInterface
}

// NewAuthController creates an instance of AuthController
func NewAuthController(users services.UserDirectoryInterface, sessions services.SessionServiceInterface, tracker services.RSVPTrackerInterface) *AuthController {
	logger.Debug.Println("NewAuthController: Initializing AuthController")
	return &AuthController{Users: users, Sessions: sessions, Tracker: tracker}
}

type signInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type schoolRequest struct {
	School string `json:"school" form:"school"`
}

// SignUp registers an account and sends the client on to sign-in.
func (ac *AuthController) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid sign-up form.")
		return
	}

	user, err := ac.Users.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, "SignUp", err)
		return
	}

	logger.Info.Printf("SignUp: account created for %s", user.Email)
	c.Header("Location", RouteSignIn)
	c.JSON(http.StatusCreated, gin.H{"user": user, "next": RouteSignIn})
}

// SignIn authenticates, stores the email in the cookie session and loads
// the tracker's state for the new user.
func (ac *AuthController) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBind(&req); err != nil || req.Email == "" || req.Password == "" {
		badRequest(c, "Email and password are required.")
		return
	}

	ctx := c.Request.Context()
	user, err := ac.Sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, "SignIn", err)
		return
	}

	session := sessions.Default(c)
	session.Set("user", user.Email)
	if err := session.Save(); err != nil {
		logger.Error.Printf("SignIn: Failed to save session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error, please try again."})
		return
	}

	if err := ac.Tracker.LoadCurrentUser(ctx); err != nil {
		logger.Warn.Printf("SignIn: tracker could not load %s: %v", user.Email, err)
	} else if err := ac.Tracker.LoadRSVPedEvents(ctx); err != nil {
		logger.Warn.Printf("SignIn: tracker could not load RSVPs of %s: %v", user.Email, err)
	}

	next := RouteHome
	if user.SelectedSchool == "" {
		next = RouteSchoolSelect
	}
	logger.Info.Printf("SignIn: %s signed in, next=%s", user.Email, next)
	c.JSON(http.StatusOK, gin.H{"user": user, "next": next})
}

// SignOut ends the session in the store, the tracker and the cookie. A
// cookie naming someone other than the signed-in account only clears itself.
func (ac *AuthController) SignOut(c *gin.Context) {
	session := sessions.Default(c)
	email, _ := session.Get("user").(string)
	current := ac.Tracker.CurrentUser()

	if email == "" || (current != nil && strings.EqualFold(current.Email, email)) {
		if err := ac.Sessions.SignOut(c.Request.Context()); err != nil {
			respondError(c, "SignOut", err)
			return
		}
		ac.Tracker.SignedOut()
	} else {
		logger.Warn.Printf("SignOut: stale session for %s; clearing the cookie only", email)
	}

	session.Clear()
	if err := session.Save(); err != nil {
		logger.Error.Printf("SignOut: Error saving session during sign-out: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"next": RouteSignIn})
}

// ShowSchools lists the selectable schools and the current selection.
func (ac *AuthController) ShowSchools(c *gin.Context) {
	selected, err := ac.Sessions.SelectedSchool(c.Request.Context())
	if err != nil {
		respondError(c, "ShowSchools", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schools": ac.Sessions.Schools(), "selected": selected})
}

// SelectSchool saves the chosen school for the device and the signed-in user.
func (ac *AuthController) SelectSchool(c *gin.Context) {
	var req schoolRequest
	if err := c.ShouldBind(&req); err != nil || req.School == "" {
		badRequest(c, "Please select a school.")
		return
	}

	ctx := c.Request.Context()
	if err := ac.Sessions.SelectSchool(ctx, req.School); err != nil {
		respondError(c, "SelectSchool", err)
		return
	}
	if err := ac.Tracker.LoadCurrentUser(ctx); err != nil {
		logger.Warn.Printf("SelectSchool: tracker reload failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"selected": req.School, "next": RouteHome})
}
