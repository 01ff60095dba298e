package upload

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fx := newFixture(t)

	r := gin.New()
	admin := r.Group("/api/admin")
	admin.Use(func(c *gin.Context) {
		c.Set("user_id", "admin-1")
		c.Next()
	})
	RegisterRoutes(admin, NewHandler(fx.service, zerolog.Nop()))
	return r, fx
}

func performUpload(r http.Handler, t *testing.T, parts ...part) (*httptest.ResponseRecorder, envelope) {
	body, ct := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload-course-file", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func performCleanup(r http.Handler, t *testing.T, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/delete-course-files", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestUploadCourseFileHandler_OK(t *testing.T) {
	r, fx := setupRouter(t)

	w, env := performUpload(r, t, imagePart(), videoPart())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var files CourseFiles
	require.NoError(t, json.Unmarshal(env.Data, &files))
	assert.NotEmpty(t, files.Image)
	assert.NotEmpty(t, files.IntroVideo)

	u, err := fx.repo.GetByKey(t.Context(), files.Image)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", u.UploadedBy)
}

func TestUploadCourseFileHandler_InvalidImage(t *testing.T) {
	r, _ := setupRouter(t)

	bad := part{field: "image", filename: "cover.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")}
	w, env := performUpload(r, t, bad, videoPart())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.JSONEq(t, `{"image":"Invalid image file type"}`, string(env.Error))
}

func TestUploadCourseFileHandler_TooLarge(t *testing.T) {
	r, fx := setupRouter(t)
	fx.service.maxSize = 16

	w, env := performUpload(r, t, imagePart(), videoPart())
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"image":"Image file is too large"}`, string(env.Error))
}

func TestUploadCourseFileHandler_NotMultipart(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload-course-file", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCourseFilesHandler(t *testing.T) {
	r, fx := setupRouter(t)

	_, env := performUpload(r, t, imagePart(), videoPart())
	var files CourseFiles
	require.NoError(t, json.Unmarshal(env.Data, &files))

	body, _ := json.Marshal(map[string]any{"files": []string{files.Image, files.IntroVideo}})
	w, env := performCleanup(r, t, string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res CleanupResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, []string{files.Image, files.IntroVideo}, res.Deleted)

	ok, err := fx.store.Exists(t.Context(), files.Image)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteCourseFilesHandler_NonExistentIsOK(t *testing.T) {
	r, _ := setupRouter(t)

	w, env := performCleanup(r, t, `{"files":["courses/does-not-exist.png"]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestDeleteCourseFilesHandler_EmptyAndInvalid(t *testing.T) {
	r, _ := setupRouter(t)

	w, env := performCleanup(r, t, `{"files":[]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":[],"skipped":[]}`, string(env.Data))

	w, env = performCleanup(r, t, `{"files":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"files":"Files must be a list of file identifiers"}`, string(env.Error))
}

func TestDeleteCourseFilesHandler_StorageError(t *testing.T) {
	r, fx := setupRouter(t)

	_, env := performUpload(r, t, imagePart(), videoPart())
	var files CourseFiles
	require.NoError(t, json.Unmarshal(env.Data, &files))

	fx.service.store = &failingStore{FileStore: fx.store, failDel: true}
	w, _ := performCleanup(r, t, `{"files":["`+files.Image+`"]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
