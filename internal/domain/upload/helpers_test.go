package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"tritium/internal/storage"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")
	mp4Bytes = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom\x00\x00\x00\x08free")
)

type part struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func imagePart() part {
	return part{field: "image", filename: "cover.png", contentType: "image/png", data: pngBytes}
}

func videoPart() part {
	return part{field: "intro_video", filename: "intro.mp4", contentType: "video/mp4", data: mp4Bytes}
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func parseForm(t *testing.T, parts ...part) *multipart.Form {
	t.Helper()
	body, ct := multipartBody(t, parts...)
	_, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:upload_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Upload{}))
	return db
}

type fixture struct {
	db      *gorm.DB
	repo    Repository
	store   *storage.Local
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	store, err := storage.NewLocal(t.TempDir(), "/public")
	require.NoError(t, err)
	repo := NewRepository(db)
	return &fixture{
		db:      db,
		repo:    repo,
		store:   store,
		service: NewService(repo, store, 1<<20, zerolog.Nop()),
	}
}

// failingStore wraps a FileStore and fails Save for one content type.
type failingStore struct {
	storage.FileStore
	failFor string
	failDel bool
}

func (f *failingStore) Save(ctx context.Context, key string, r io.Reader, size int64, ct string) error {
	if f.failFor != "" && strings.HasPrefix(ct, f.failFor) {
		return fmt.Errorf("disk full")
	}
	return f.FileStore.Save(ctx, key, r, size, ct)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	if f.failDel {
		return fmt.Errorf("i/o error")
	}
	return f.FileStore.Delete(ctx, key)
}

// attachingRepo attaches every listed row to a course right after the
// sweeper reads its batch.
type attachingRepo struct {
	Repository
	courseID string
}

func (r *attachingRepo) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*Upload, error) {
	batch, err := r.Repository.ListPendingBefore(ctx, before, limit)
	if err != nil {
		return nil, err
	}
	for _, u := range batch {
		if err := r.Repository.Attach(ctx, r.courseID, u.Key); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// attachOnDelete tries to attach key to a course when its file is about
// to be deleted and records the outcome.
type attachOnDelete struct {
	storage.FileStore
	repo      Repository
	attachErr error
}

func (s *attachOnDelete) Delete(ctx context.Context, key string) error {
	s.attachErr = s.repo.Attach(ctx, "course-1", key)
	return s.FileStore.Delete(ctx, key)
}
