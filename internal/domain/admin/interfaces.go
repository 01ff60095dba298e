package admin

import (
	"context"
	"mime/multipart"

	"tritium/internal/domain/auth"
	"tritium/internal/domain/upload"
)

type counter interface {
	Count(ctx context.Context) (int64, error)
}

type pendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

type ProfileService interface {
	GetByID(ctx context.Context, id string) (*auth.User, error)
	UpdateProfile(ctx context.Context, userID string, req auth.UpdateProfileRequest, profileImage string) (*auth.User, string, error)
}

type ImageStore interface {
	Store(ctx context.Context, userID string, kind upload.Kind, headers []*multipart.FileHeader) (*upload.Upload, error)
	Discard(ctx context.Context, keys ...string) error
	URL(key string) string
}

// Counters groups the record counts shown on the dashboard.
type Counters struct {
	Courses    counter
	Categories counter
	Lectures   counter
	Users      counter
	Uploads    pendingCounter
}
