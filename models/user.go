// Package models defines data structures used across the application.
// File: models/user.go
package models

import (
	"strings"
)

// ----------------------- user model -----------------------

// User is a registered account. Email is the identifier and is stored lower-cased.
type User struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Password       string `json:"password,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	SelectedSchool string `json:"selectedSchool,omitempty"`
}

// NormalizeEmail makes emails comparable regardless of case or padding.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName is "First Last", falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.Email
}

// Public returns a copy without the password, as kept in session state.
func (u User) Public() User {
	u.Password = ""
	return u
}

// Attendee returns the identity recorded in an event's attendee collection.
func (u User) Attendee() Attendee {
	return Attendee{
		Name:           u.DisplayName(),
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}
}

// ---------------------- sign-up request ----------------------

// SignUpRequest carries the sign-up form.
type SignUpRequest struct {
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// Validate reports missing fields and a mismatched confirmation.
func (r SignUpRequest) Validate() error {
	v := &ValidationError{}
	v.require("firstName", r.FirstName)
	v.require("lastName", r.LastName)
	v.require("email", r.Email)
	v.require("password", r.Password)
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		v.add("email", "must be an email address")
	}
	if r.Password != "" && r.Password != r.ConfirmPassword {
		v.add("confirmPassword", "passwords do not match")
	}
	return v.orNil()
}
