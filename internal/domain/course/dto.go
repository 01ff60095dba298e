package course

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString accepts a JSON string or number. Other JSON values are kept
// as their raw text so field validation reports them.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		*f = FlexString(b)
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

type CreateCourseRequest struct {
	Name        string     `json:"name" validate:"required" msg:"Course name is required"`
	Description string     `json:"description" validate:"required" msg:"Course description is required"`
	Price       FlexString `json:"price" validate:"required" msg:"Price must be a number"`
	Level       string     `json:"level" validate:"required,oneof=beginner intermediate advanced" msg:"Course level is required" msg_oneof:"Course level must be beginner, intermediate or advanced"`
	Category    FlexString `json:"category" validate:"required" msg:"Course category is required"`
	Image       string     `json:"image"`
	Instructor  FlexString `json:"instructor" validate:"required" msg:"Instructor is required"`
	IntroVideo  string     `json:"intro_video"`
}

func (r *CreateCourseRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Price = FlexString(strings.TrimSpace(string(r.Price)))
	r.Level = strings.ToLower(strings.TrimSpace(r.Level))
	r.Category = FlexString(strings.TrimSpace(string(r.Category)))
	r.Image = strings.TrimSpace(r.Image)
	r.Instructor = FlexString(strings.TrimSpace(string(r.Instructor)))
	r.IntroVideo = strings.TrimSpace(r.IntroVideo)
}

// UpdateCourseRequest arrives as multipart form fields next to optional
// replacement files.
type UpdateCourseRequest struct {
	Name        string     `form:"name" validate:"required" msg:"Course name is required"`
	Description string     `form:"description" validate:"required" msg:"Course description is required"`
	Price       FlexString `form:"price" validate:"required" msg:"Price must be a number"`
	Level       string     `form:"level" validate:"required,oneof=beginner intermediate advanced" msg:"Course level is required" msg_oneof:"Course level must be beginner, intermediate or advanced"`
	Category    FlexString `form:"category"`
	Instructor  FlexString `form:"instructor"`
}

func (r *UpdateCourseRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Price = FlexString(strings.TrimSpace(string(r.Price)))
	r.Level = strings.ToLower(strings.TrimSpace(r.Level))
	r.Category = FlexString(strings.TrimSpace(string(r.Category)))
	r.Instructor = FlexString(strings.TrimSpace(string(r.Instructor)))
}
