package lecture

import "time"

type Lecture struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	CourseID    string    `gorm:"column:course_id;index" json:"course_id"`
	Title       string    `gorm:"column:title" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	VideoURL    string    `gorm:"column:video_url" json:"video_url"`
	VideoLink   string    `gorm:"-" json:"video_link,omitempty"`
	Duration    int       `gorm:"column:duration" json:"duration"`
	Position    int       `gorm:"column:position" json:"position"`
	Hidden      bool      `gorm:"column:hidden" json:"hidden"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Lecture) TableName() string { return "lectures" }

type LectureRequest struct {
	Title       string `json:"title" validate:"required" msg:"Lecture title is required"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	Duration    int    `json:"duration" validate:"gte=0" msg:"Duration must not be negative"`
}

type ReorderRequest struct {
	CourseID   string   `json:"course_id" validate:"required" msg:"Course is required"`
	LectureIDs []string `json:"lecture_ids" validate:"required,min=1" msg:"Lecture order is required"`
}
