package lecture

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Create(ctx context.Context, l *Lecture) error
	GetByID(ctx context.Context, id string) (*Lecture, error)
	ListByCourse(ctx context.Context, courseID string) ([]*Lecture, error)
	NextPosition(ctx context.Context, courseID string) (int, error)
	Update(ctx context.Context, l *Lecture) error
	SetPosition(ctx context.Context, id string, position int) error
	Delete(ctx context.Context, id string) error
	DeleteByCourse(ctx context.Context, courseID string) error
	Count(ctx context.Context) (int64, error)
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

func (r *repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repository) Create(ctx context.Context, l *Lecture) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*Lecture, error) {
	var l Lecture
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLectureNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) ListByCourse(ctx context.Context, courseID string) ([]*Lecture, error) {
	var out []*Lecture
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) NextPosition(ctx context.Context, courseID string) (int, error) {
	var maxPos *int
	err := r.db.WithContext(ctx).Model(&Lecture{}).
		Where("course_id = ?", courseID).
		Select("MAX(position)").
		Scan(&maxPos).Error
	if err != nil {
		return 0, err
	}
	if maxPos == nil {
		return 0, nil
	}
	return *maxPos + 1, nil
}

func (r *repository) Update(ctx context.Context, l *Lecture) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *repository) SetPosition(ctx context.Context, id string, position int) error {
	return r.db.WithContext(ctx).Model(&Lecture{}).Where("id = ?", id).Update("position", position).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&Lecture{}).Error
}

func (r *repository) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&Lecture{}).Error
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Lecture{}).Count(&n).Error
	return n, err
}
