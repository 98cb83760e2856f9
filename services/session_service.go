// Package services: services/session_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"eventlink/logger"
	"eventlink/models"
	"eventlink/storage"
)

// SessionServiceInterface covers sign-in state and school selection.
type SessionServiceInterface interface {
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	Current(ctx context.Context) (*models.User, error)
	Schools() []string
	SelectSchool(ctx context.Context, school string) error
	SelectedSchool(ctx context.Context) (string, error)
	UpdateProfilePicture(ctx context.Context, uri string) (*models.User, error)
}

// SessionService keeps the signed-in account under "currentUser" and the
// device's school under "selectedSchool". Only one user is signed in per install.
type SessionService struct {
	store   storage.Store
	users   *UserDirectory
	schools []string
}

// NewSessionService creates a SessionService offering the given schools.
func NewSessionService(store storage.Store, users *UserDirectory, schools []string) *SessionService {
	return &SessionService{store: store, users: users, schools: append([]string(nil), schools...)}
}

// SignIn authenticates and overwrites the session with the account.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx storage.Tx) error {
		if err := storage.WriteJSON(tx, storage.KeyCurrentUser, user); err != nil {
			return err
		}
		if user.SelectedSchool != "" {
			return storage.WriteJSON(tx, storage.KeySelectedSchool, user.SelectedSchool)
		}
		return nil
	})
	if err != nil {
		logger.Error.Printf("SignIn: saving session for %s failed: %v", user.Email, err)
		return nil, fmt.Errorf("sign in: %w", err)
	}

	logger.Info.Printf("SignIn: %s signed in", user.Email)
	return user, nil
}

// SignOut clears the session. Signing out twice is not an error.
func (s *SessionService) SignOut(ctx context.Context) error {
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		return tx.Remove(storage.KeyCurrentUser)
	})
	if err != nil {
		logger.Error.Printf("SignOut: clearing session failed: %v", err)
		return fmt.Errorf("sign out: %w", err)
	}
	logger.Info.Println("SignOut: session cleared")
	return nil
}

// Current returns the signed-in account, or nil when signed out.
func (s *SessionService) Current(ctx context.Context) (*models.User, error) {
	var user *models.User
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		user, err = storage.ReadObject[models.User](tx, storage.KeyCurrentUser)
		return err
	})
	if err != nil {
		logger.Error.Printf("Current: reading session failed: %v", err)
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

// Schools lists the selectable schools.
func (s *SessionService) Schools() []string {
	return append([]string(nil), s.schools...)
}

// SelectSchool stores the device's school and, when someone is signed in,
// their account's school in both the directory and the session copy.
func (s *SessionService) SelectSchool(ctx context.Context, school string) error {
	if !s.knownSchool(school) {
		logger.Warn.Printf("SelectSchool: rejected unknown school %q", school)
		return ErrUnknownSchool
	}

	err := s.store.Update(ctx, func(tx storage.Tx) error {
		if err := storage.WriteJSON(tx, storage.KeySelectedSchool, school); err != nil {
			return err
		}
		current, err := storage.ReadObject[models.User](tx, storage.KeyCurrentUser)
		if err != nil || current == nil {
			return err
		}
		_, err = modifyUserTx(tx, current.Email, func(u *models.User) {
			u.SelectedSchool = school
		})
		if errors.Is(err, ErrUserNotFound) {
			// session without a directory entry; keep the session copy in step anyway
			current.SelectedSchool = school
			return storage.WriteJSON(tx, storage.KeyCurrentUser, current)
		}
		return err
	})
	if err != nil {
		logger.Error.Printf("SelectSchool: saving %q failed: %v", school, err)
		return fmt.Errorf("select school: %w", err)
	}
	logger.Info.Printf("SelectSchool: selected %q", school)
	return nil
}

// SelectedSchool returns the device's school, falling back to the signed-in
// account's. Empty when neither is set.
func (s *SessionService) SelectedSchool(ctx context.Context) (string, error) {
	var school string
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		if school, err = storage.ReadString(tx, storage.KeySelectedSchool); err != nil || school != "" {
			return err
		}
		current, err := storage.ReadObject[models.User](tx, storage.KeyCurrentUser)
		if err == nil && current != nil {
			school = current.SelectedSchool
		}
		return err
	})
	if err != nil {
		logger.Error.Printf("SelectedSchool: read failed: %v", err)
		return "", fmt.Errorf("selected school: %w", err)
	}
	return school, nil
}

// UpdateProfilePicture changes the signed-in account's picture in the
// directory, the session and every attendee list the account is on.
func (s *SessionService) UpdateProfilePicture(ctx context.Context, uri string) (*models.User, error) {
	var updated *models.User
	err := s.store.Update(ctx, func(tx storage.Tx) error {
		current, err := storage.ReadObject[models.User](tx, storage.KeyCurrentUser)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotSignedIn
		}
		updated, err = modifyUserTx(tx, current.Email, func(u *models.User) {
			if uri != "" {
				u.ProfilePicture = uri
			}
		})
		if err != nil || uri == "" {
			return err
		}
		return refreshAttendeePictureTx(tx, updated.Email, uri)
	})
	if errors.Is(err, ErrNotSignedIn) || errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if err != nil {
		logger.Error.Printf("UpdateProfilePicture: failed: %v", err)
		return nil, fmt.Errorf("update profile picture: %w", err)
	}
	return updated, nil
}

// refreshAttendeePictureTx updates the user's entry in every attendee list.
func refreshAttendeePictureTx(tx storage.Tx, email, uri string) error {
	keys, err := tx.Keys(storage.AttendeesPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		attendees, err := storage.ReadList[models.Attendee](tx, k)
		if err != nil {
			return err
		}
		i := indexOfAttendee(attendees, email)
		if i < 0 || attendees[i].ProfilePicture == uri {
			continue
		}
		attendees[i].ProfilePicture = uri
		if err := storage.WriteJSON(tx, k, attendees); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionService) knownSchool(school string) bool {
	for _, known := range s.schools {
		if known == school {
			return true
		}
	}
	return false
}
