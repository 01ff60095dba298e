package lecture

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

	"tritium/internal/domain/upload"
	"tritium/internal/storage"
)

var mp4Bytes = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom\x00\x00\x00\x08free")

type courseSet map[string]bool

func (s courseSet) Exists(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

type fixture struct {
	courseID   string
	store      *storage.Local
	uploads    *upload.Service
	uploadRepo upload.Repository
	service    *Service
	router     *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:lecture_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Lecture{}, &upload.Upload{}))

	store, err := storage.NewLocal(t.TempDir(), "/public")
	require.NoError(t, err)

	fx := &fixture{courseID: uuid.NewString(), store: store, uploadRepo: upload.NewRepository(db)}
	fx.uploads = upload.NewService(fx.uploadRepo, store, 1<<20, zerolog.Nop())
	fx.service = NewService(NewRepository(db), courseSet{fx.courseID: true}, fx.uploads, zerolog.Nop())

	r := gin.New()
	admin := r.Group("/api/admin", func(c *gin.Context) { c.Set("user_id", "admin-1") })
	RegisterRoutes(admin, NewHandler(fx.service, upload.NewHandler(fx.uploads, zerolog.Nop()), fx.uploads.MaxFileSize(), zerolog.Nop()))
	fx.router = r
	return fx
}

func videoForm(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="video_url"; filename="lesson 1.mp4"`)
	h.Set("Content-Type", "video/mp4")
	pw, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = pw.Write(mp4Bytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// uploadVideo stores a pending lecture video and returns its key.
func (fx *fixture) uploadVideo(t *testing.T) string {
	t.Helper()
	body, ct := videoForm(t)
	_, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	u, err := fx.service.UploadVideo(context.Background(), "admin-1", fx.courseID, form.File["video_url"])
	require.NoError(t, err)
	return u.Key
}

// failingDiscard keeps the real ledger but fails every Discard.
type failingDiscard struct {
	*upload.Service
}

func (failingDiscard) Discard(context.Context, ...string) error {
	return fmt.Errorf("storage unavailable")
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
