// Package adminclient drives the admin console's create-course workflow:
// upload the media, create the course record, and delete the uploaded
// files again when creation fails.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	uploadPath  = "/api/admin/upload-course-file"
	createPath  = "/api/admin/create-new-course"
	cleanupPath = "/api/admin/delete-course-files"

	// CoursesPage is where a successful submission navigates to.
	CoursesPage = "/admin/manage-courses"
	// CoursesCacheKey names the cached course listing to invalidate.
	CoursesCacheKey = "courses"

	cleanupTimeout = 30 * time.Second
)

// Session carries what the workflow needs to know about the signed in
// admin. The instructor id is sent as the course instructor.
type Session struct {
	BaseURL      string
	Token        string
	InstructorID string
}

type Navigator interface {
	Navigate(path string)
}

type CacheInvalidator interface {
	Invalidate(key string)
}

// CleanupReporter receives compensating deletes that did not succeed so
// they can be surfaced to operators.
type CleanupReporter interface {
	ReportCleanupFailure(ctx context.Context, err *CleanupError)
}

// File is one media file picked in the form.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// CourseDraft is the form content before submission.
type CourseDraft struct {
	Name        string
	Description string
	Price       string
	Level       string
	Category    string
	Image       *File
	IntroVideo  *File
}

// UploadedFiles are the identifiers returned by the upload step.
type UploadedFiles struct {
	Image      string `json:"image"`
	IntroVideo string `json:"intro_video"`
}

// IDs returns the non-empty identifiers, image first.
func (f UploadedFiles) IDs() []string {
	ids := make([]string, 0, 2)
	if f.Image != "" {
		ids = append(ids, f.Image)
	}
	if f.IntroVideo != "" {
		ids = append(ids, f.IntroVideo)
	}
	return ids
}

type Course struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Level       string  `json:"level"`
	Category    string  `json:"category"`
	Instructor  string  `json:"instructor"`
	Image       string  `json:"image"`
	IntroVideo  string  `json:"intro_video"`
}

type createCourseBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Level       string `json:"level"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Instructor  string `json:"instructor"`
	IntroVideo  string `json:"intro_video"`
}

// Result is the outcome of one submission. On failure Err holds the error
// also returned by Submit; a failed cleanup is kept in CleanupErr.
type Result struct {
	State      State
	Files      UploadedFiles
	Course     *Course
	Err        error
	CleanupErr *CleanupError
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithNavigator(n Navigator) Option { return func(o *Orchestrator) { o.nav = n } }

func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(o *Orchestrator) { o.invalidator = c }
}

func WithCleanupReporter(r CleanupReporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

func WithLogger(l zerolog.Logger) Option { return func(o *Orchestrator) { o.log = l } }

func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, fn) }
}

// Orchestrator runs one submission at a time. Steps are strictly
// sequential and none is retried.
type Orchestrator struct {
	session     Session
	client      *http.Client
	nav         Navigator
	invalidator CacheInvalidator
	reporter    CleanupReporter
	log         zerolog.Logger
	observers   []Observer

	mu      sync.Mutex
	state   State
	running bool
}

func New(session Session, client *http.Client, opts ...Option) *Orchestrator {
	if client == nil {
		client = http.DefaultClient
	}
	o := &Orchestrator{
		session: session,
		client:  client,
		log:     zerolog.Nop(),
		state:   Idle,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.session.BaseURL = strings.TrimRight(o.session.BaseURL, "/")
	o.log = o.log.With().Str("component", "adminclient").Logger()
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	if !canTransition(from, to) {
		o.mu.Unlock()
		panic(fmt.Sprintf("adminclient: invalid transition %s -> %s", from, to))
	}
	o.state = to
	o.mu.Unlock()

	o.log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("state changed")
	for _, fn := range o.observers {
		fn(from, to)
	}
}

// Submit uploads the draft's media, creates the course and, when creation
// fails, removes the uploaded files. The returned error is the upload or
// creation error the user should see; cleanup failures only reach the
// CleanupReporter.
func (o *Orchestrator) Submit(ctx context.Context, draft CourseDraft) (*Result, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.running = true
	o.state = Idle
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	res := &Result{}

	o.transition(Uploading)
	files, err := o.upload(ctx, draft)
	if err != nil {
		o.transition(UploadFailed)
		res.State, res.Err = UploadFailed, err
		return res, err
	}
	res.Files = *files
	o.transition(Uploaded)

	o.transition(Creating)
	course, err := o.create(ctx, draft, *files)
	if err == nil {
		o.transition(Created)
		res.State, res.Course = Created, course
		if o.invalidator != nil {
			o.invalidator.Invalidate(CoursesCacheKey)
		}
		if o.nav != nil {
			o.nav.Navigate(CoursesPage)
		}
		return res, nil
	}
	o.transition(CreationFailed)
	res.Err = err

	o.transition(CleaningUp)
	if cerr := o.cleanup(ctx, files.IDs()); cerr != nil {
		res.CleanupErr = cerr
		o.log.Error().Err(cerr).Strs("files", cerr.Files).Msg("cleanup after failed course creation failed")
		if o.reporter != nil {
			o.reporter.ReportCleanupFailure(ctx, cerr)
		}
	}
	o.transition(CleanupDone)
	res.State = CleanupDone
	return res, err
}

func (o *Orchestrator) upload(ctx context.Context, draft CourseDraft) (*UploadedFiles, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, p := range []struct {
		field string
		file  *File
	}{{"image", draft.Image}, {"intro_video", draft.IntroVideo}} {
		if p.file == nil {
			continue
		}
		if err := writeFile(w, p.field, p.file); err != nil {
			return nil, &UploadError{Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &UploadError{Err: err}
	}

	status, raw, err := o.do(ctx, http.MethodPost, uploadPath, w.FormDataContentType(), body)
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	if status != http.StatusOK {
		msg, fields := errorDetails(status, raw)
		return nil, &UploadError{Status: status, Message: msg, Fields: fields}
	}

	var files UploadedFiles
	if err := decodeData(raw, &files); err != nil {
		return nil, &UploadError{Status: status, Err: err}
	}
	return &files, nil
}

func (o *Orchestrator) create(ctx context.Context, draft CourseDraft, files UploadedFiles) (*Course, error) {
	payload, err := json.Marshal(createCourseBody{
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Level:       draft.Level,
		Category:    draft.Category,
		Image:       files.Image,
		Instructor:  o.session.InstructorID,
		IntroVideo:  files.IntroVideo,
	})
	if err != nil {
		return nil, &CreationError{Err: fmt.Errorf("marshaling request body: %w", err)}
	}

	status, raw, err := o.do(ctx, http.MethodPost, createPath, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, &CreationError{Err: err}
	}
	if status != http.StatusCreated {
		msg, fields := errorDetails(status, raw)
		return nil, &CreationError{Status: status, Message: msg, Fields: fields}
	}

	var data struct {
		Course Course `json:"course"`
	}
	if err := decodeData(raw, &data); err != nil {
		return nil, &CreationError{Status: status, Err: err}
	}
	return &data.Course, nil
}

// cleanup runs even when ctx was cancelled during creation, bounded by its
// own timeout.
func (o *Orchestrator) cleanup(ctx context.Context, ids []string) *CleanupError {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string][]string{"files": ids})
	if err != nil {
		return &CleanupError{Files: ids, Err: err}
	}
	status, _, err := o.do(ctx, http.MethodPost, cleanupPath, "application/json", bytes.NewReader(payload))
	if err != nil {
		return &CleanupError{Files: ids, Err: err}
	}
	if status != http.StatusOK {
		return &CleanupError{Files: ids, Status: status}
	}
	o.log.Info().Strs("files", ids).Msg("cleaned up files after failed course creation")
	return nil
}

func (o *Orchestrator) do(ctx context.Context, method, path, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, o.session.BaseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if o.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.session.Token)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func writeFile(w *multipart.Writer, field string, f *File) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if f.Content == nil {
		return nil
	}
	_, err = io.Copy(part, f.Content)
	return err
}

func decodeData(raw []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("decoding response: missing data")
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}
