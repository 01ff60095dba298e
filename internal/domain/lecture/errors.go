package lecture

import "errors"

var (
	ErrLectureNotFound = errors.New("lecture not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrInvalidOrder    = errors.New("lecture ids do not match the course lectures")
)
