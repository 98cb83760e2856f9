// Package middleware provides request filters for the application.
// File: middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"eventlink/logger"
	"eventlink/models"
)

// -------------- authentication middleware --------------

// AuthRequired ensures the cookie session carries a signed-in email under
// "user". Otherwise the request is answered with 401 and the sign-in route.
// Usage:
//
//	protected := router.Group("/", AuthRequired)
func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	user, ok := session.Get("user").(string)

	// block request if user session is missing
	if !ok || user == "" {
		logger.Warn.Printf("AuthRequired: No user in session for %s %s", c.Request.Method, c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Please sign in.",
			"next":  "/sign-in",
		})
		return
	}

	c.Set("user", user)
	logger.Debug.Printf("[AuthRequired] %s authenticated - proceeding with request", user)
	c.Next()
}

// SignedInUser reports the account signed in on this install, nil when none.
type SignedInUser interface {
	CurrentUser() *models.User
}

// SessionMatches rejects a cookie naming someone other than the account
// signed in on this install, e.g. one issued before another user signed in.
// Requests without a cookie user pass; AuthRequired decides about those.
func SessionMatches(users SignedInUser) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		email, _ := session.Get("user").(string)
		if email == "" {
			c.Next()
			return
		}

		current := users.CurrentUser()
		if current == nil || !strings.EqualFold(current.Email, email) {
			logger.Warn.Printf("SessionMatches: stale session for %s on %s %s", email, c.Request.Method, c.Request.URL.Path)
			session.Clear()
			if err := session.Save(); err != nil {
				logger.Error.Printf("SessionMatches: clearing session failed: %v", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Please sign in.",
				"next":  "/sign-in",
			})
			return
		}
		c.Next()
	}
}

// NoFrames forbids embedding the app in other sites' frames.
func NoFrames(c *gin.Context) {
	c.Writer.Header().Set("X-Frame-Options", "DENY")
	c.Next()
}
