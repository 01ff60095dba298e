package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"tritium/internal/pkg/apperr"
	"tritium/internal/storage"
)

const (
	DefaultMaxFileSize = 500 << 20

	saveAttempts = 3
	sweepBatch   = 200
)

type rule struct {
	field      string
	prefix     string
	mimePrefix string
	missing    string
	invalid    string
	tooMany    string
	tooLarge   string
}

var rules = map[Kind]rule{
	KindImage: {
		field:      "image",
		prefix:     "courses/",
		mimePrefix: "image/",
		missing:    "Image file is required",
		invalid:    "Invalid image file type",
		tooMany:    "Only one image file is allowed",
		tooLarge:   "Image file is too large",
	},
	KindIntroVideo: {
		field:      "intro_video",
		prefix:     "courses/",
		mimePrefix: "video/",
		missing:    "Video file is required",
		invalid:    "Invalid video file type",
		tooMany:    "Only one video file is allowed",
		tooLarge:   "Video file is too large",
	},
	KindLectureVideo: {
		field:      "video_url",
		prefix:     "courses/lectures/",
		mimePrefix: "video/",
		missing:    "Video file is required",
		invalid:    "Invalid video file type",
		tooMany:    "Only one video file is allowed",
		tooLarge:   "Video file is too large",
	},
	KindProfileImage: {
		field:      "profile_image",
		prefix:     "users/",
		mimePrefix: "image/",
		missing:    "Profile image is required",
		invalid:    "Invalid image file type",
		tooMany:    "Only one image file is allowed",
		tooLarge:   "Image file is too large",
	},
}

// Field is the multipart field name files of this kind arrive in.
func (k Kind) Field() string { return rules[k].field }

// Service stores uploaded media and keeps the upload ledger in step with
// the file store.
type Service struct {
	repo    Repository
	store   storage.FileStore
	maxSize int64
	log     zerolog.Logger

	now    func() time.Time
	random io.Reader
}

func NewService(repo Repository, store storage.FileStore, maxSize int64, log zerolog.Logger) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Service{
		repo:    repo,
		store:   store,
		maxSize: maxSize,
		log:     log.With().Str("component", "upload").Logger(),
		now:     time.Now,
		random:  rand.Reader,
	}
}

func (s *Service) MaxFileSize() int64 { return s.maxSize }

func (s *Service) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.URL(key)
}

// File is a validated multipart part ready to be stored.
type File struct {
	Kind   Kind
	Header *multipart.FileHeader
	Mime   string
}

// ValidateFile checks that exactly one acceptable file of the given kind
// was sent. It writes nothing.
func (s *Service) ValidateFile(kind Kind, headers []*multipart.FileHeader) (*File, error) {
	r, ok := rules[kind]
	if !ok {
		return nil, fmt.Errorf("unknown upload kind %q", kind)
	}

	switch {
	case len(headers) == 0 || headers[0] == nil:
		return nil, apperr.NewValidation(r.field, r.missing)
	case len(headers) > 1:
		return nil, apperr.NewValidation(r.field, r.tooMany)
	}

	fh := headers[0]
	if fh.Size == 0 {
		return nil, errors.Join(ErrEmptyFile, apperr.NewValidation(r.field, r.missing))
	}
	if fh.Size > s.maxSize {
		return nil, errors.Join(ErrFileTooLarge, apperr.NewValidation(r.field, r.tooLarge))
	}

	mimeType, err := detectMime(fh)
	if err != nil {
		return nil, fmt.Errorf("detect mime type: %w", err)
	}
	if !strings.HasPrefix(mimeType, r.mimePrefix) {
		return nil, apperr.NewValidation(r.field, r.invalid)
	}

	return &File{Kind: kind, Header: fh, Mime: mimeType}, nil
}

// UploadCourseFiles validates both course media parts, image first, then
// writes them concurrently and records them as pending. If either write
// fails the other file is removed again.
func (s *Service) UploadCourseFiles(ctx context.Context, userID string, images, videos []*multipart.FileHeader) (*CourseFiles, error) {
	image, err := s.ValidateFile(KindImage, images)
	if err != nil {
		return nil, err
	}
	video, err := s.ValidateFile(KindIntroVideo, videos)
	if err != nil {
		return nil, err
	}

	stored, err := s.storeAll(ctx, userID, image, video)
	if err != nil {
		return nil, err
	}
	return &CourseFiles{Image: stored[0].Key, IntroVideo: stored[1].Key}, nil
}

// Store validates and stores a single file of the given kind.
func (s *Service) Store(ctx context.Context, userID string, kind Kind, headers []*multipart.FileHeader) (*Upload, error) {
	f, err := s.ValidateFile(kind, headers)
	if err != nil {
		return nil, err
	}
	stored, err := s.storeAll(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return stored[0], nil
}

// StoreValidated stores files that already passed ValidateFile. Either all
// of them end up stored and recorded as pending, or none.
func (s *Service) StoreValidated(ctx context.Context, userID string, files ...*File) ([]*Upload, error) {
	if len(files) == 0 {
		return nil, nil
	}
	return s.storeAll(ctx, userID, files...)
}

func (s *Service) storeAll(ctx context.Context, userID string, files ...*File) ([]*Upload, error) {
	uploads := make([]*Upload, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			key, err := s.save(gctx, f)
			if err != nil {
				return fmt.Errorf("store %s: %w", f.Kind, err)
			}
			now := s.now()
			uploads[i] = &Upload{
				ID:           uuid.NewString(),
				Key:          key,
				Kind:         f.Kind,
				Status:       StatusPending,
				UploadedBy:   userID,
				OriginalName: f.Header.Filename,
				MimeType:     f.Mime,
				Size:         f.Header.Size,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		if err = s.repo.Create(ctx, uploads...); err != nil {
			err = fmt.Errorf("save upload records: %w", err)
		}
	}
	if err != nil {
		for _, u := range uploads {
			if u == nil {
				continue
			}
			if rmErr := s.store.Delete(context.WithoutCancel(ctx), u.Key); rmErr != nil && !errors.Is(rmErr, storage.ErrNotFound) {
				s.log.Error().Err(rmErr).Str("key", u.Key).Msg("rollback of stored file failed")
			}
		}
		return nil, err
	}

	for _, u := range uploads {
		s.log.Info().Str("key", u.Key).Str("kind", string(u.Kind)).Int64("size", u.Size).Msg("file stored")
	}
	return uploads, nil
}

func (s *Service) save(ctx context.Context, f *File) (string, error) {
	src, err := f.Header.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	prefix := rules[f.Kind].prefix
	for attempt := 0; ; attempt++ {
		key, err := s.newKey(prefix, f.Header.Filename)
		if err != nil {
			return "", err
		}

		err = s.store.Save(ctx, key, src, f.Header.Size, f.Mime)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, storage.ErrExists) || attempt+1 >= saveAttempts {
			return "", err
		}
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind file: %w", err)
		}
	}
}

// newKey builds prefix + "<unix-ms>-<12 hex>-<name>". The random part keeps
// keys distinct within one millisecond.
func (s *Service) newKey(prefix, original string) (string, error) {
	var b [6]byte
	if _, err := io.ReadFull(s.random, b[:]); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return fmt.Sprintf("%s%d-%s-%s", prefix, s.now().UnixMilli(), hex.EncodeToString(b[:]), sanitizeFilename(original)), nil
}

// CheckPending reports ErrUploadNotFound unless key is a pending upload of
// the given kind.
func (s *Service) CheckPending(ctx context.Context, key string, kind Kind) error {
	u, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if u.Kind != kind || u.Status != StatusPending {
		return ErrUploadNotFound
	}
	return nil
}

// Attach marks keys as owned by courseID inside tx.
func (s *Service) Attach(ctx context.Context, tx *gorm.DB, courseID string, keys ...string) error {
	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	return repo.Attach(ctx, courseID, keys...)
}

// AttachAvatar marks a stored profile image as used by userID inside tx.
func (s *Service) AttachAvatar(ctx context.Context, tx *gorm.DB, userID, key string) error {
	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	return repo.AttachAvatar(ctx, userID, key)
}

// FilesOf lists every live ledger key owned by courseID.
func (s *Service) FilesOf(ctx context.Context, courseID string) ([]string, error) {
	uploads, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		keys = append(keys, u.Key)
	}
	return keys, nil
}

// Discard removes files regardless of their ledger status. It is used once
// the owning record is gone or has switched to new files. Failures are
// logged; the first one is returned.
func (s *Service) Discard(ctx context.Context, keys ...string) error {
	var first error
	removed := make([]string, 0, len(keys))
	for _, key := range uniqueKeys(keys) {
		err := s.store.Delete(ctx, key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.Error().Err(err).Str("key", key).Msg("discard file failed")
			if first == nil {
				first = err
			}
			continue
		}
		removed = append(removed, key)
	}
	if err := s.repo.MarkDeleted(ctx, removed...); err != nil {
		s.log.Error().Err(err).Strs("keys", removed).Msg("mark discarded uploads failed")
		if first == nil {
			first = err
		}
	}
	return first
}

// Cleanup deletes files left behind by an aborted course creation. It is
// idempotent: keys that are already gone count as deleted. Keys that are
// malformed, attached to a course, or unknown to the ledger while still
// present in storage are skipped.
func (s *Service) Cleanup(ctx context.Context, keys []string) (*CleanupResult, error) {
	res := &CleanupResult{Deleted: []string{}, Skipped: []string{}}

	for _, raw := range keys {
		key, err := storage.CleanKey(raw)
		if err != nil {
			if strings.TrimSpace(raw) != "" {
				res.Skipped = append(res.Skipped, raw)
			}
			continue
		}

		u, err := s.repo.GetByKey(ctx, key)
		switch {
		case errors.Is(err, ErrUploadNotFound):
			exists, err := s.store.Exists(ctx, key)
			if err != nil {
				return res, fmt.Errorf("check %s: %w", key, err)
			}
			if exists {
				res.Skipped = append(res.Skipped, key)
			} else {
				res.Deleted = append(res.Deleted, key)
			}
			continue
		case err != nil:
			return res, fmt.Errorf("lookup %s: %w", key, err)
		case u.Status == StatusAttached:
			res.Skipped = append(res.Skipped, key)
			continue
		}

		claimed, err := s.repo.Claim(ctx, key)
		if err != nil {
			return res, fmt.Errorf("claim %s: %w", key, err)
		}
		if !claimed {
			if u.Status == StatusDeleted {
				res.Deleted = append(res.Deleted, key)
			} else {
				res.Skipped = append(res.Skipped, key)
			}
			continue
		}
		if err := s.removeClaimed(ctx, key); err != nil {
			return res, fmt.Errorf("delete %s: %w", key, err)
		}
		res.Deleted = append(res.Deleted, key)
	}

	if len(res.Deleted) > 0 || len(res.Skipped) > 0 {
		s.log.Info().Strs("deleted", res.Deleted).Strs("skipped", res.Skipped).Msg("course files cleaned up")
	}
	return res, nil
}

// SweepOrphans deletes pending uploads older than olderThan. Per-file
// failures are logged and counted; only ledger query errors abort.
func (s *Service) SweepOrphans(ctx context.Context, olderThan time.Duration) (*SweepResult, error) {
	start := s.now()
	cutoff := start.Add(-olderThan)
	res := &SweepResult{}

	for {
		batch, err := s.repo.ListPendingBefore(ctx, cutoff, sweepBatch)
		if err != nil {
			return res, fmt.Errorf("list orphaned uploads: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		progressed := false
		for _, u := range batch {
			res.Scanned++
			claimed, err := s.repo.Claim(ctx, u.Key)
			if err != nil {
				s.log.Error().Err(err).Str("key", u.Key).Msg("orphan claim failed")
				res.Failed++
				continue
			}
			if !claimed {
				progressed = true
				continue
			}
			if err := s.removeClaimed(ctx, u.Key); err != nil {
				s.log.Error().Err(err).Str("key", u.Key).Msg("orphan delete failed")
				res.Failed++
				continue
			}
			res.Deleted++
			progressed = true
		}
		if !progressed || len(batch) < sweepBatch {
			break
		}
	}

	s.log.Info().
		Int("scanned", res.Scanned).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Dur("took", time.Since(start)).
		Msg("orphan sweep finished")
	return res, nil
}

// removeClaimed deletes the file of a claimed row. A failed delete puts
// the row back to pending.
func (s *Service) removeClaimed(ctx context.Context, key string) error {
	err := s.store.Delete(ctx, key)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if rerr := s.repo.Release(context.WithoutCancel(ctx), key); rerr != nil {
		s.log.Error().Err(rerr).Str("key", key).Msg("release claimed upload failed")
	}
	return err
}

// CountPending is used by the dashboard.
func (s *Service) CountPending(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, StatusPending)
}

// detectMime trusts the declared part type unless it is missing or the
// generic octet-stream, in which case the content is sniffed.
func detectMime(fh *multipart.FileHeader) (string, error) {
	declared := fh.Header.Get("Content-Type")
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt, nil
		}
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return strings.SplitN(mt.String(), ";", 2)[0], nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, base)
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" || strings.Trim(base, "_") == "" {
		base = "file"
	}

	ext = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, strings.TrimPrefix(ext, "."))
	if len(ext) > 10 {
		ext = ext[:10]
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}
