package course

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"tritium/internal/cache"
	"tritium/internal/domain/category"
	"tritium/internal/domain/lecture"
	"tritium/internal/domain/upload"
	"tritium/internal/storage"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")
	mp4Bytes = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom\x00\x00\x00\x08free")
)

const adminID = "admin-1"

type instructorSet map[string]bool

func (s instructorSet) Exists(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

type fixture struct {
	db          *gorm.DB
	store       *storage.Local
	uploads     *upload.Service
	uploadRepo  upload.Repository
	lectures    lecture.Repository
	categories  *category.Service
	instructors instructorSet
	service     *Service
	router      *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:course_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Course{}, &lecture.Lecture{}, &upload.Upload{}, &category.Category{}))

	store, err := storage.NewLocal(t.TempDir(), "/public")
	require.NoError(t, err)

	fx := &fixture{
		db:          db,
		store:       store,
		uploadRepo:  upload.NewRepository(db),
		lectures:    lecture.NewRepository(db),
		categories:  category.NewService(category.NewRepository(db)),
		instructors: instructorSet{"instructor-1": true},
	}
	fx.uploads = upload.NewService(fx.uploadRepo, store, 1<<20, zerolog.Nop())
	fx.service = NewService(Deps{
		Repo:        NewRepository(db),
		Lectures:    fx.lectures,
		Categories:  fx.categories,
		Instructors: fx.instructors,
		Files:       fx.uploads,
		Cache:       cache.NewMemory(),
		CacheTTL:    0,
	}, zerolog.Nop())

	r := gin.New()
	admin := r.Group("/api/admin", func(c *gin.Context) { c.Set("user_id", adminID) })
	RegisterRoutes(admin, NewHandler(fx.service, fx.uploads.MaxFileSize(), zerolog.Nop()))
	fx.router = r
	return fx
}

func (fx *fixture) newCategory(t *testing.T, name string) string {
	t.Helper()
	c, err := fx.categories.Create(context.Background(), category.CreateCategoryRequest{Name: name})
	require.NoError(t, err)
	return c.ID
}

type part struct {
	field, filename, contentType string
	data                         []byte
}

func imagePart() part {
	return part{field: "image", filename: "cover.png", contentType: "image/png", data: pngBytes}
}

func videoPart() part {
	return part{field: "intro_video", filename: "intro.mp4", contentType: "video/mp4", data: mp4Bytes}
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		h.Set("Content-Type", p.contentType)
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
	body, ct := multipartBody(t, nil, parts...)
	_, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form
}

// uploadMedia stores an image and intro video the way the upload endpoint
// does and returns their keys.
func (fx *fixture) uploadMedia(t *testing.T) *upload.CourseFiles {
	t.Helper()
	form := parseForm(t, imagePart(), videoPart())
	files, err := fx.uploads.UploadCourseFiles(context.Background(), adminID, form.File["image"], form.File["intro_video"])
	require.NoError(t, err)
	return files
}

func (fx *fixture) createCourse(t *testing.T) *Course {
	t.Helper()
	files := fx.uploadMedia(t)
	c, err := fx.service.Create(context.Background(), CreateCourseRequest{
		Name:        "Go in Practice",
		Description: "Services, tooling and tests",
		Price:       "49.99",
		Level:       "beginner",
		Category:    FlexString(fx.newCategory(t, "Programming-"+uuid.NewString()[:8])),
		Instructor:  "instructor-1",
		Image:       files.Image,
		IntroVideo:  files.IntroVideo,
	})
	require.NoError(t, err)
	return c
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
