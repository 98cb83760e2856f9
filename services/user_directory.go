// Package services: services/user_directory.go
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"eventlink/logger"
	"eventlink/models"
	"eventlink/storage"
	"golang.org/x/crypto/bcrypt"
)

// UserDirectoryInterface is the account registry used by the HTTP layer.
type UserDirectoryInterface interface {
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// UserDirectory stores every account as one JSON list under the "users" key.
type UserDirectory struct {
	store         storage.Store
	hashPasswords bool
}

// NewUserDirectory creates a UserDirectory. With hashPasswords, new passwords
// are stored as bcrypt hashes; otherwise in plain text.
func NewUserDirectory(store storage.Store, hashPasswords bool) *UserDirectory {
	return &UserDirectory{store: store, hashPasswords: hashPasswords}
}

// SignUp validates the form and appends a new account.
func (d *UserDirectory) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		logger.Warn.Printf("SignUp: rejected form: %v", err)
		return nil, err
	}

	user := models.User{
		Email:     models.NormalizeEmail(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Password:  req.Password,
	}
	if d.hashPasswords {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashed)
	}

	err := d.store.Update(ctx, func(tx storage.Tx) error {
		users, err := storage.ReadList[models.User](tx, storage.KeyUsers)
		if err != nil {
			return err
		}
		if indexOfUser(users, user.Email) >= 0 {
			return ErrEmailTaken
		}
		return storage.WriteJSON(tx, storage.KeyUsers, append(users, user))
	})
	if errors.Is(err, ErrEmailTaken) {
		logger.Warn.Printf("SignUp: %s is already registered", user.Email)
		return nil, err
	}
	if err != nil {
		logger.Error.Printf("SignUp: saving user %s failed: %v", user.Email, err)
		return nil, fmt.Errorf("sign up: %w", err)
	}

	logger.Info.Printf("SignUp: registered %s", user.Email)
	pub := user.Public()
	return &pub, nil
}

// Authenticate returns the account whose email and password match.
func (d *UserDirectory) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := d.find(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !passwordMatches(user.Password, password) {
		logger.Warn.Printf("Authenticate: wrong password for %s", user.Email)
		return nil, ErrInvalidCredentials
	}
	pub := user.Public()
	return &pub, nil
}

func (d *UserDirectory) find(ctx context.Context, email string) (*models.User, error) {
	var found *models.User
	err := d.store.View(ctx, func(tx storage.Tx) error {
		users, err := storage.ReadList[models.User](tx, storage.KeyUsers)
		if err != nil {
			return err
		}
		if i := indexOfUser(users, email); i >= 0 {
			found = &users[i]
		}
		return nil
	})
	if err != nil {
		logger.Error.Printf("find: reading users failed: %v", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if found == nil {
		return nil, ErrUserNotFound
	}
	return found, nil
}

// modifyUserTx applies fn to the stored account inside tx and, when that
// account is the signed-in one, to the session copy as well.
func modifyUserTx(tx storage.Tx, email string, fn func(u *models.User)) (*models.User, error) {
	users, err := storage.ReadList[models.User](tx, storage.KeyUsers)
	if err != nil {
		return nil, err
	}
	i := indexOfUser(users, email)
	if i < 0 {
		return nil, ErrUserNotFound
	}
	fn(&users[i])
	if err := storage.WriteJSON(tx, storage.KeyUsers, users); err != nil {
		return nil, err
	}

	current, err := storage.ReadObject[models.User](tx, storage.KeyCurrentUser)
	if err != nil {
		return nil, err
	}
	pub := users[i].Public()
	if current != nil && strings.EqualFold(current.Email, users[i].Email) {
		if err := storage.WriteJSON(tx, storage.KeyCurrentUser, pub); err != nil {
			return nil, err
		}
	}
	return &pub, nil
}

func indexOfUser(users []models.User, email string) int {
	email = models.NormalizeEmail(email)
	for i, u := range users {
		if models.NormalizeEmail(u.Email) == email {
			return i
		}
	}
	return -1
}

func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
