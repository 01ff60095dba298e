package lecture

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"tritium/internal/domain/upload"
	"tritium/internal/pkg/apperr"
	"tritium/internal/pkg/validator"
)

type courseChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type fileLedger interface {
	Store(ctx context.Context, userID string, kind upload.Kind, headers []*multipart.FileHeader) (*upload.Upload, error)
	CheckPending(ctx context.Context, key string, kind upload.Kind) error
	Attach(ctx context.Context, tx *gorm.DB, courseID string, keys ...string) error
	Discard(ctx context.Context, keys ...string) error
	URL(key string) string
}

type Service struct {
	repo    Repository
	courses courseChecker
	files   fileLedger
	log     zerolog.Logger
}

func NewService(repo Repository, courses courseChecker, files fileLedger, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		files:   files,
		log:     log.With().Str("component", "lecture").Logger(),
	}
}

func (s *Service) ensureCourse(ctx context.Context, courseID string) error {
	ok, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCourseNotFound
	}
	return nil
}

func (s *Service) withLink(l *Lecture) *Lecture {
	l.VideoLink = s.files.URL(l.VideoURL)
	return l
}

func (s *Service) List(ctx context.Context, courseID string) ([]*Lecture, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	lectures, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for _, l := range lectures {
		s.withLink(l)
	}
	return lectures, nil
}

func (s *Service) Get(ctx context.Context, courseID, lectureID string) (*Lecture, error) {
	l, err := s.repo.GetByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if l.CourseID != courseID {
		return nil, ErrLectureNotFound
	}
	return s.withLink(l), nil
}

func (s *Service) validate(ctx context.Context, req *LectureRequest, currentVideo string) error {
	req.Title = strings.TrimSpace(req.Title)
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	if errs := validator.Validate(req); errs != nil {
		return &apperr.ValidationError{Fields: errs}
	}
	if req.VideoURL != "" && req.VideoURL != currentVideo {
		if err := s.files.CheckPending(ctx, req.VideoURL, upload.KindLectureVideo); err != nil {
			if errors.Is(err, upload.ErrUploadNotFound) {
				return apperr.NewValidation("video_url", "Lecture video file not found")
			}
			return err
		}
	}
	return nil
}

// Add appends a lecture to the end of the course.
func (s *Service) Add(ctx context.Context, courseID string, req LectureRequest) (*Lecture, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &req, ""); err != nil {
		return nil, err
	}

	l := &Lecture{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		VideoURL:    req.VideoURL,
		Duration:    req.Duration,
	}

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pos, err := repo.NextPosition(ctx, courseID)
		if err != nil {
			return err
		}
		l.Position = pos
		if err := repo.Create(ctx, l); err != nil {
			return err
		}
		if l.VideoURL != "" {
			return s.files.Attach(ctx, tx, courseID, l.VideoURL)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add lecture: %w", err)
	}
	return s.withLink(l), nil
}

// UploadVideo stores a lecture video for the course and returns its ledger
// entry; the key is attached once a lecture references it.
func (s *Service) UploadVideo(ctx context.Context, userID, courseID string, headers []*multipart.FileHeader) (*upload.Upload, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.files.Store(ctx, userID, upload.KindLectureVideo, headers)
}

func (s *Service) Update(ctx context.Context, courseID, lectureID string, req LectureRequest) (*Lecture, error) {
	l, err := s.Get(ctx, courseID, lectureID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &req, l.VideoURL); err != nil {
		return nil, err
	}

	previous := l.VideoURL
	l.Title = req.Title
	l.Description = req.Description
	l.Duration = req.Duration
	l.VideoURL = req.VideoURL

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, l); err != nil {
			return err
		}
		if l.VideoURL != "" && l.VideoURL != previous {
			return s.files.Attach(ctx, tx, courseID, l.VideoURL)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update lecture: %w", err)
	}

	if previous != "" && previous != l.VideoURL {
		if err := s.files.Discard(ctx, previous); err != nil {
			s.log.Warn().Err(err).Str("lecture_id", l.ID).Msg("replaced lecture video not removed")
		}
	}
	return s.withLink(l), nil
}

// Reorder sets positions from the given order. The ids must be exactly the
// lectures of the course.
func (s *Service) Reorder(ctx context.Context, req ReorderRequest) ([]*Lecture, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, &apperr.ValidationError{Fields: errs}
	}
	if err := s.ensureCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	current, err := s.repo.ListByCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !samePermutation(current, req.LectureIDs) {
		return nil, ErrInvalidOrder
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for pos, id := range req.LectureIDs {
			if err := repo.SetPosition(ctx, id, pos); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reorder lectures: %w", err)
	}
	return s.List(ctx, req.CourseID)
}

func (s *Service) Delete(ctx context.Context, lectureID string) error {
	l, err := s.repo.GetByID(ctx, lectureID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, lectureID); err != nil {
		return err
	}
	if l.VideoURL != "" {
		if err := s.files.Discard(ctx, l.VideoURL); err != nil {
			s.log.Warn().Err(err).Str("lecture_id", lectureID).Msg("lecture video not removed")
		}
	}
	return nil
}

func (s *Service) ToggleHidden(ctx context.Context, lectureID string) (*Lecture, error) {
	l, err := s.repo.GetByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	l.Hidden = !l.Hidden
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return s.withLink(l), nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func samePermutation(current []*Lecture, ids []string) bool {
	if len(current) != len(ids) {
		return false
	}
	want := make(map[string]bool, len(current))
	for _, l := range current {
		want[l.ID] = true
	}
	for _, id := range ids {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return len(want) == 0
}
