// Package services holds the application's state logic over the key-value store.
// file: services/errors.go
package services

import "errors"

var (
	ErrNotSignedIn        = errors.New("user not found, please sign in again")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrEventNotFound      = errors.New("event not found")
	ErrNotCreator         = errors.New("only the event's creator can change it")
	ErrUnknownSchool      = errors.New("unknown school")
)
