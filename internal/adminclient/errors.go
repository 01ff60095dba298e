package adminclient

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBusy = errors.New("adminclient: a submission is already in progress")

// UploadError is returned when the media upload step fails. Nothing was
// stored, so nothing is cleaned up.
type UploadError struct {
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload course files: %v", e.Err)
	}
	return fmt.Sprintf("upload course files: %d %s", e.Status, e.Message)
}

func (e *UploadError) Unwrap() error { return e.Err }

// CreationError is returned when the course record could not be created
// after the media was uploaded.
type CreationError struct {
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *CreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("create course: %v", e.Err)
	}
	return fmt.Sprintf("create course: %d %s", e.Status, e.Message)
}

func (e *CreationError) Unwrap() error { return e.Err }

// CleanupError describes a failed compensating delete. It is reported to
// the CleanupReporter, never returned from Submit.
type CleanupError struct {
	Files  []string
	Status int
	Err    error
}

func (e *CleanupError) Error() string {
	files := strings.Join(e.Files, ", ")
	if e.Err != nil {
		return fmt.Sprintf("cleanup of [%s]: %v", files, e.Err)
	}
	return fmt.Sprintf("cleanup of [%s]: status %d", files, e.Status)
}

func (e *CleanupError) Unwrap() error { return e.Err }
