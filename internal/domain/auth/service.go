package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tritium/internal/pkg/apperr"
	"tritium/internal/pkg/validator"
)

const (
	maxFailedLoginAttempts = 5
	lockoutDuration        = 15 * time.Minute
)

type jwtService interface {
	GenerateToken(userID string, role string) (string, error)
}

// avatarLedger marks a stored profile image as in use within the user
// update transaction.
type avatarLedger interface {
	AttachAvatar(ctx context.Context, tx *gorm.DB, userID, key string) error
}

// Service contains the login and user profile logic.
type Service struct {
	users   UserRepository
	jwt     jwtService
	avatars avatarLedger
	now     func() time.Time
}

// NewService builds the service. avatars may be nil when profile images are
// not stored through the upload ledger (seed command).
func NewService(users UserRepository, jwt jwtService, avatars avatarLedger) *Service {
	return &Service{users: users, jwt: jwt, avatars: avatars, now: time.Now}
}

// CreateUser is used by the seed command and tests.
func (s *Service) CreateUser(ctx context.Context, name, email, password string, role UserRole) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
		Name:         strings.TrimSpace(name),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, &apperr.ValidationError{Fields: errs}
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLoginAttempts {
			until := now.Add(lockoutDuration)
			user.LockedUntil = &until
			user.FailedLoginAttempts = 0
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, AccessToken: token}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// Exists reports whether a user with id exists; courses use it to check
// instructors.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.users.Exists(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

// UpdateProfile changes name and email and, when profileImage is set,
// the stored avatar key. It returns the previous avatar key so the caller
// can discard the file after the update.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest, profileImage string) (*User, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := validator.Validate(&req); errs != nil {
		return nil, "", &apperr.ValidationError{Fields: errs}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	previous := ""
	user.Name = req.Name
	user.Email = req.Email
	if profileImage != "" {
		previous = user.ProfileImage
		user.ProfileImage = profileImage
	}

	err = s.users.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Update(ctx, user); err != nil {
			return err
		}
		if profileImage != "" && s.avatars != nil {
			return s.avatars.AttachAvatar(ctx, tx, userID, profileImage)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, "", apperr.NewValidation("email", "Email is already in use")
		}
		return nil, "", err
	}
	return user, previous, nil
}
