package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"tritium/internal/cache"
	"tritium/internal/domain/lecture"
	"tritium/internal/domain/upload"
	"tritium/internal/pkg/apperr"
	"tritium/internal/pkg/validator"
)

const listCacheKey = "courses:all"

type existence interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type fileLedger interface {
	ValidateFile(kind upload.Kind, headers []*multipart.FileHeader) (*upload.File, error)
	StoreValidated(ctx context.Context, userID string, files ...*upload.File) ([]*upload.Upload, error)
	CheckPending(ctx context.Context, key string, kind upload.Kind) error
	Attach(ctx context.Context, tx *gorm.DB, courseID string, keys ...string) error
	FilesOf(ctx context.Context, courseID string) ([]string, error)
	Discard(ctx context.Context, keys ...string) error
	URL(key string) string
}

type Deps struct {
	Repo        Repository
	Lectures    lecture.Repository
	Categories  existence
	Instructors existence
	Files       fileLedger
	Cache       cache.Cache
	CacheTTL    time.Duration
}

type Service struct {
	repo        Repository
	lectures    lecture.Repository
	categories  existence
	instructors existence
	files       fileLedger
	cache       cache.Cache
	cacheTTL    time.Duration
	log         zerolog.Logger
}

func NewService(d Deps, log zerolog.Logger) *Service {
	c := d.Cache
	if c == nil {
		c = cache.NewMemory()
	}
	return &Service{
		repo:        d.Repo,
		lectures:    d.Lectures,
		categories:  d.Categories,
		instructors: d.Instructors,
		files:       d.Files,
		cache:       c,
		cacheTTL:    d.CacheTTL,
		log:         log.With().Str("component", "course").Logger(),
	}
}

func (s *Service) withURLs(c *Course) *Course {
	c.ImageURL = s.files.URL(c.Image)
	c.IntroVideoURL = s.files.URL(c.IntroVideo)
	return c
}

func parsePrice(raw FlexString) (float64, error) {
	price, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, apperr.NewValidation("price", "Price must be a number")
	}
	if price < 0 {
		return 0, apperr.NewValidation("price", "Price must not be negative")
	}
	return price, nil
}

// validatePrice merges the price check into the struct field errors so one
// response lists every bad field.
func validatePrice(errs map[string]string, raw FlexString) (float64, error) {
	price, err := parsePrice(raw)
	if verr, ok := apperr.AsValidation(err); ok && raw != "" {
		if errs == nil {
			errs = make(map[string]string, len(verr.Fields))
		}
		for field, msg := range verr.Fields {
			errs[field] = msg
		}
	}
	if errs != nil {
		return 0, &apperr.ValidationError{Fields: errs}
	}
	return price, nil
}

func (s *Service) checkRef(ctx context.Context, lookup existence, id, field, message string) error {
	ok, err := lookup.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	if !ok {
		return apperr.NewValidation(field, message)
	}
	return nil
}

func (s *Service) checkFile(ctx context.Context, key string, kind upload.Kind, message string) error {
	if key == "" {
		return nil
	}
	err := s.files.CheckPending(ctx, key, kind)
	if errors.Is(err, upload.ErrUploadNotFound) {
		return apperr.NewValidation(kind.Field(), message)
	}
	return err
}

// Create validates the request, checks every referenced record and attaches
// the uploaded media to the new course in the same transaction.
func (s *Service) Create(ctx context.Context, req CreateCourseRequest) (*Course, error) {
	req.normalize()
	price, err := validatePrice(validator.Validate(&req), req.Price)
	if err != nil {
		return nil, err
	}

	if err := s.checkRef(ctx, s.categories, req.Category.String(), "category", "Category not found"); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, s.instructors, req.Instructor.String(), "instructor", "Instructor not found"); err != nil {
		return nil, err
	}
	if err := s.checkFile(ctx, req.Image, upload.KindImage, "Image file not found"); err != nil {
		return nil, err
	}
	if err := s.checkFile(ctx, req.IntroVideo, upload.KindIntroVideo, "Intro video file not found"); err != nil {
		return nil, err
	}

	c := &Course{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Price:        price,
		Level:        Level(req.Level),
		CategoryID:   req.Category.String(),
		InstructorID: req.Instructor.String(),
		Image:        req.Image,
		IntroVideo:   req.IntroVideo,
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, c); err != nil {
			return err
		}
		if keys := nonEmpty(c.Image, c.IntroVideo); len(keys) > 0 {
			return s.files.Attach(ctx, tx, c.ID, keys...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.invalidate(ctx)
	s.log.Info().Str("course_id", c.ID).Str("instructor", c.InstructorID).Msg("course created")
	return s.withURLs(c), nil
}

// List returns all courses, newest first. The listing is served from cache
// when present.
func (s *Service) List(ctx context.Context) ([]*Course, error) {
	if b, err := s.cache.Get(ctx, listCacheKey); err == nil {
		var cached []*Course
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn().Err(err).Msg("course cache read failed")
	}

	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []*Course{}
	}
	for _, c := range courses {
		s.withURLs(c)
	}

	if b, err := json.Marshal(courses); err == nil {
		if err := s.cache.Set(ctx, listCacheKey, b, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("course cache write failed")
		}
	}
	return courses, nil
}

// GetByID returns the course with its lectures in order.
func (s *Service) GetByID(ctx context.Context, id string) (*Course, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lectures, err := s.lectures.ListByCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	for _, l := range lectures {
		l.VideoLink = s.files.URL(l.VideoURL)
	}
	c.Lectures = lectures
	return s.withURLs(c), nil
}

// Update changes the course fields and, when new files were sent, swaps its
// media. Replaced files are removed only after the update has committed.
func (s *Service) Update(ctx context.Context, userID, id string, req UpdateCourseRequest, images, videos []*multipart.FileHeader) (*Course, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.normalize()
	price, err := validatePrice(validator.Validate(&req), req.Price)
	if err != nil {
		return nil, err
	}
	if req.Category != "" {
		if err := s.checkRef(ctx, s.categories, req.Category.String(), "category", "Category not found"); err != nil {
			return nil, err
		}
		c.CategoryID = req.Category.String()
	}
	if req.Instructor != "" {
		if err := s.checkRef(ctx, s.instructors, req.Instructor.String(), "instructor", "Instructor not found"); err != nil {
			return nil, err
		}
		c.InstructorID = req.Instructor.String()
	}

	var validated []*upload.File
	if len(images) > 0 {
		f, err := s.files.ValidateFile(upload.KindImage, images)
		if err != nil {
			return nil, err
		}
		validated = append(validated, f)
	}
	if len(videos) > 0 {
		f, err := s.files.ValidateFile(upload.KindIntroVideo, videos)
		if err != nil {
			return nil, err
		}
		validated = append(validated, f)
	}

	stored, err := s.files.StoreValidated(ctx, userID, validated...)
	if err != nil {
		return nil, err
	}

	var replaced, added []string
	for _, u := range stored {
		added = append(added, u.Key)
		switch u.Kind {
		case upload.KindImage:
			replaced = append(replaced, c.Image)
			c.Image = u.Key
		case upload.KindIntroVideo:
			replaced = append(replaced, c.IntroVideo)
			c.IntroVideo = u.Key
		}
	}

	c.Name = req.Name
	c.Description = req.Description
	c.Price = price
	c.Level = Level(req.Level)

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, c); err != nil {
			return err
		}
		if len(added) > 0 {
			return s.files.Attach(ctx, tx, c.ID, added...)
		}
		return nil
	})
	if err != nil {
		if len(added) > 0 {
			if derr := s.files.Discard(context.WithoutCancel(ctx), added...); derr != nil {
				s.log.Warn().Err(derr).Str("course_id", c.ID).Msg("new course files not removed after failed update")
			}
		}
		return nil, fmt.Errorf("update course: %w", err)
	}

	if old := nonEmpty(replaced...); len(old) > 0 {
		if err := s.files.Discard(ctx, old...); err != nil {
			s.log.Warn().Err(err).Str("course_id", c.ID).Msg("replaced course files not removed")
		}
	}
	s.invalidate(ctx)
	return s.GetByID(ctx, c.ID)
}

// Delete removes the course, its lectures and every stored file it owns.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	lectures, err := s.lectures.ListByCourse(ctx, id)
	if err != nil {
		return fmt.Errorf("list lectures: %w", err)
	}
	owned, err := s.files.FilesOf(ctx, id)
	if err != nil {
		return fmt.Errorf("list course files: %w", err)
	}

	keys := append(owned, c.Image, c.IntroVideo)
	for _, l := range lectures {
		keys = append(keys, l.VideoURL)
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.lectures.WithTx(tx).DeleteByCourse(ctx, id); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if keys = nonEmpty(keys...); len(keys) > 0 {
		if err := s.files.Discard(ctx, keys...); err != nil {
			s.log.Warn().Err(err).Str("course_id", id).Msg("some course files were not removed")
		}
	}
	s.invalidate(ctx)
	s.log.Info().Str("course_id", id).Int("lectures", len(lectures)).Msg("course deleted")
	return nil
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("course cache invalidation failed")
	}
}

func nonEmpty(keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
