package adminclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"tritium/internal/cache"
	"tritium/internal/domain/auth"
	"tritium/internal/domain/category"
	"tritium/internal/server"
	"tritium/internal/storage"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")
	mp4Bytes = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom\x00\x00\x00\x08free")
)

type liveEnv struct {
	app      *server.App
	root     string
	session  Session
	category string
	srv      *httptest.Server
}

func newLiveEnv(t *testing.T) *liveEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:adminclient_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, server.Migrate(db))

	root := t.TempDir()
	store, err := storage.NewLocal(root, "/public")
	require.NoError(t, err)

	app := server.New(server.Options{
		DB:             db,
		Store:          store,
		Cache:          cache.NewMemory(),
		JWTSecret:      "e2e-secret",
		JWTTTL:         time.Hour,
		MaxUploadBytes: 1 << 20,
		CourseCacheTTL: time.Minute,
		Log:            zerolog.Nop(),
	})
	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	admin, err := app.Users.CreateUser(ctx, "Ada", "ada@example.com", "password1", auth.RoleAdmin)
	require.NoError(t, err)
	token, err := app.Tokens.GenerateToken(admin.ID, string(admin.Role))
	require.NoError(t, err)
	cat, err := app.Categories.Create(ctx, category.CreateCategoryRequest{Name: "Programming"})
	require.NoError(t, err)

	return &liveEnv{
		app:      app,
		root:     root,
		session:  Session{BaseURL: srv.URL, Token: token, InstructorID: admin.ID},
		category: cat.ID,
		srv:      srv,
	}
}

func (e *liveEnv) storedFiles(t *testing.T) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(e.root, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			rel, _ := filepath.Rel(e.root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return err
	})
	require.NoError(t, err)
	return files
}

func liveDraft(category string) CourseDraft {
	return CourseDraft{
		Name:        "Go in Practice",
		Description: "Build services",
		Price:       "49",
		Level:       "intermediate",
		Category:    category,
		Image:       &File{Name: "cover.png", ContentType: "image/png", Content: bytes.NewReader(pngBytes)},
		IntroVideo:  &File{Name: "intro.mp4", ContentType: "video/mp4", Content: bytes.NewReader(mp4Bytes)},
	}
}

func TestEndToEnd_CreatesCourse(t *testing.T) {
	env := newLiveEnv(t)
	nav := &navSpy{}
	orch := New(env.session, env.srv.Client(), WithNavigator(nav))

	res, err := orch.Submit(context.Background(), liveDraft(env.category))
	require.NoError(t, err)
	require.NotNil(t, res.Course)

	assert.Equal(t, res.Files.Image, res.Course.Image)
	assert.Equal(t, res.Files.IntroVideo, res.Course.IntroVideo)
	assert.Equal(t, env.session.InstructorID, res.Course.Instructor)
	assert.Equal(t, []string{CoursesPage}, nav.paths)
	assert.ElementsMatch(t, []string{res.Files.Image, res.Files.IntroVideo}, env.storedFiles(t))

	got, err := env.app.Courses.GetByID(context.Background(), res.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go in Practice", got.Name)
}

func TestEndToEnd_FailedCreationLeavesNoFiles(t *testing.T) {
	env := newLiveEnv(t)
	orch := New(env.session, env.srv.Client())

	res, err := orch.Submit(context.Background(), liveDraft(""))

	var cerr *CreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Course category is required", cerr.Message)
	assert.Equal(t, CleanupDone, res.State)
	assert.Nil(t, res.CleanupErr)
	assert.NotEmpty(t, res.Files.Image)
	assert.Empty(t, env.storedFiles(t))
}

func TestEndToEnd_UploadRejected(t *testing.T) {
	env := newLiveEnv(t)
	orch := New(env.session, env.srv.Client())

	d := liveDraft(env.category)
	d.Image = &File{Name: "notes.txt", ContentType: "text/plain", Content: strings.NewReader("hello")}

	res, err := orch.Submit(context.Background(), d)
	var uerr *UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Invalid image file type", uerr.Message)
	assert.Equal(t, UploadFailed, res.State)
	assert.Empty(t, env.storedFiles(t))
}
