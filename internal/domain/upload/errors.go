package upload

import "errors"

var (
	ErrUploadNotFound = errors.New("upload not found")
	ErrNotPending     = errors.New("upload is not pending")
	ErrFileTooLarge   = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile      = errors.New("file is empty")
)
