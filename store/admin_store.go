package store

import (
	"sync"
	"time"

	"emperror.dev/errors"
	"golang.org/x/crypto/bcrypt"

	"portfolio/api/models"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.NewPlain("invalid credentials")
	ErrWrongPassword      = errors.NewPlain("old password is incorrect")
	ErrWeakPassword       = errors.NewPlain("new password must be at least 6 characters")
)

// AdminStore holds the single admin account. The password hash lives in memory only,
// so a changed password is lost on restart.
type AdminStore struct {
	mu    sync.RWMutex
	admin models.Admin
}

func NewAdminStore(email, password string) (*AdminStore, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to hash admin password")
	}

	return &AdminStore{admin: models.Admin{
		Email:          email,
		HashedPassword: hashed,
		UpdatedAt:      time.Now().UTC(),
	}}, nil
}

// Authenticate checks email and password against the stored account.
func (s *AdminStore) Authenticate(email, password string) (models.Admin, error) {
	s.mu.RLock()
	admin := s.admin
	s.mu.RUnlock()

	if email != admin.Email {
		return models.Admin{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(admin.HashedPassword, []byte(password)); err != nil {
		return models.Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}

// IsAdmin reports whether email names the current admin account.
func (s *AdminStore) IsAdmin(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return email == s.admin.Email
}

func (s *AdminStore) ChangePassword(oldPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword(s.admin.HashedPassword, []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.WrapIf(err, "failed to hash admin password")
	}

	s.admin.HashedPassword = hashed
	s.admin.UpdatedAt = time.Now().UTC()
	return nil
}
