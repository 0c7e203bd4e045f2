package storage

import (
	"errors"

	"github.com/classboard/classboard-cli/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository persists the authenticated user's profile between runs.
// Only the profile is ever stored: the access token and its expiry are
// volatile by design and must not reach durable storage.
type ProfileRepository interface {
	SaveProfile(user *models.User) error
	LoadProfile() (*models.User, error)
	DeleteProfile() error
}
