package upload

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, uploads ...*Upload) error
	GetByKey(ctx context.Context, key string) (*Upload, error)
	Attach(ctx context.Context, courseID string, keys ...string) error
	AttachAvatar(ctx context.Context, userID, key string) error
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
	MarkDeleted(ctx context.Context, keys ...string) error
	ListByCourse(ctx context.Context, courseID string) ([]*Upload, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*Upload, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// Create inserts all rows in one statement.
func (r *repository) Create(ctx context.Context, uploads ...*Upload) error {
	if len(uploads) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(uploads).Error
}

func (r *repository) GetByKey(ctx context.Context, key string) (*Upload, error) {
	var u Upload
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUploadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Attach links pending rows (or rows already owned by courseID) to the
// course. It fails with ErrNotPending unless every key matched.
func (r *repository) Attach(ctx context.Context, courseID string, keys ...string) error {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&Upload{}).
		Where("storage_key IN ?", keys).
		Where("status = ? OR (status = ? AND course_id = ?)", StatusPending, StatusAttached, courseID).
		Updates(map[string]any{
			"status":     StatusAttached,
			"course_id":  courseID,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(keys)) {
		return ErrNotPending
	}
	return nil
}

// AttachAvatar marks a pending profile image uploaded by userID as in use.
// Attached avatars carry no course id, so no course can claim them.
func (r *repository) AttachAvatar(ctx context.Context, userID, key string) error {
	res := r.db.WithContext(ctx).Model(&Upload{}).
		Where("storage_key = ? AND kind = ? AND status = ? AND uploaded_by = ?", key, KindProfileImage, StatusPending, userID).
		Updates(map[string]any{
			"status":     StatusAttached,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrNotPending
	}
	return nil
}

// Claim moves a pending row to deleted before its file is removed. It
// reports false when the row is no longer pending, e.g. because a course
// attached it in the meantime.
func (r *repository) Claim(ctx context.Context, key string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Upload{}).
		Where("storage_key = ? AND status = ?", key, StatusPending).
		Updates(map[string]any{
			"status":     StatusDeleted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release returns a claimed row to pending when its file could not be
// removed, so a later sweep retries it.
func (r *repository) Release(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Model(&Upload{}).
		Where("storage_key = ? AND status = ?", key, StatusDeleted).
		Updates(map[string]any{
			"status":     StatusPending,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) MarkDeleted(ctx context.Context, keys ...string) error {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&Upload{}).
		Where("storage_key IN ?", keys).
		Updates(map[string]any{
			"status":     StatusDeleted,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) ListByCourse(ctx context.Context, courseID string) ([]*Upload, error) {
	var uploads []*Upload
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND status <> ?", courseID, StatusDeleted).
		Order("created_at ASC").
		Find(&uploads).Error
	return uploads, err
}

func (r *repository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*Upload, error) {
	var uploads []*Upload
	q := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", StatusPending, before).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&uploads).Error
	return uploads, err
}

func (r *repository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Upload{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
