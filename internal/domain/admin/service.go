package admin

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/rs/zerolog"

	"tritium/internal/domain/auth"
	"tritium/internal/domain/upload"
)

type DashboardStats struct {
	Courses        int64 `json:"courses"`
	Categories     int64 `json:"categories"`
	Lectures       int64 `json:"lectures"`
	Users          int64 `json:"users"`
	PendingUploads int64 `json:"pending_uploads"`
}

type Service struct {
	counters Counters
	profiles ProfileService
	images   ImageStore
	log      zerolog.Logger
}

func NewService(counters Counters, profiles ProfileService, images ImageStore, log zerolog.Logger) *Service {
	return &Service{
		counters: counters,
		profiles: profiles,
		images:   images,
		log:      log.With().Str("component", "admin").Logger(),
	}
}

func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	var (
		st  DashboardStats
		err error
	)
	if st.Courses, err = s.counters.Courses.Count(ctx); err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}
	if st.Categories, err = s.counters.Categories.Count(ctx); err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	if st.Lectures, err = s.counters.Lectures.Count(ctx); err != nil {
		return nil, fmt.Errorf("count lectures: %w", err)
	}
	if st.Users, err = s.counters.Users.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if st.PendingUploads, err = s.counters.Uploads.CountPending(ctx); err != nil {
		return nil, fmt.Errorf("count pending uploads: %w", err)
	}
	return &st, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*auth.User, error) {
	u, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.ProfileImageURL = s.images.URL(u.ProfileImage)
	return u, nil
}

// UpdateProfile saves name and email. A new avatar is stored first and the
// old one removed once the user row points at the new key.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req auth.UpdateProfileRequest, images []*multipart.FileHeader) (*auth.User, error) {
	var key string
	if len(images) > 0 {
		u, err := s.images.Store(ctx, userID, upload.KindProfileImage, images)
		if err != nil {
			return nil, err
		}
		key = u.Key
	}

	user, previous, err := s.profiles.UpdateProfile(ctx, userID, req, key)
	if err != nil {
		if key != "" {
			if derr := s.images.Discard(context.WithoutCancel(ctx), key); derr != nil {
				s.log.Warn().Err(derr).Str("user_id", userID).Msg("new profile image not removed after failed update")
			}
		}
		return nil, err
	}
	if previous != "" && previous != key {
		if err := s.images.Discard(ctx, previous); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("old profile image not removed")
		}
	}

	user.ProfileImageURL = s.images.URL(user.ProfileImage)
	return user, nil
}
