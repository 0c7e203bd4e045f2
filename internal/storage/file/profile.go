package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/classboard/classboard-cli/internal/models"
	"github.com/classboard/classboard-cli/internal/storage"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

type ProfileRepository struct {
	path string
	log  *zap.SugaredLogger
}

func NewProfileRepository(path string, log *zap.SugaredLogger) storage.ProfileRepository {
	return &ProfileRepository{path: path, log: log}
}

// SaveProfile writes the profile as JSON via a temp-file rename, so a crash
// mid-write cannot leave a truncated profile behind.
func (r *ProfileRepository) SaveProfile(user *models.User) error {
	if err := os.MkdirAll(filepath.Dir(r.path), dirPerm); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("rename profile: %w", err)
	}

	r.log.Debugw("Profile saved", "path", r.path, "userID", user.ID)
	return nil
}

func (r *ProfileRepository) LoadProfile() (*models.User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrProfileNotFound
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		// A corrupt profile is treated as absent rather than fatal.
		r.log.Warnw("Profile file is corrupt, ignoring", "path", r.path, "error", err)
		return nil, storage.ErrProfileNotFound
	}

	return &user, nil
}

func (r *ProfileRepository) DeleteProfile() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove profile: %w", err)
	}
	return nil
}
