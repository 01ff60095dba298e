package course

import (
	"time"

	"tritium/internal/domain/lecture"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

type Course struct {
	ID            string             `gorm:"column:id;primaryKey" json:"id"`
	Name          string             `gorm:"column:name" json:"name"`
	Description   string             `gorm:"column:description;type:text" json:"description"`
	Price         float64            `gorm:"column:price" json:"price"`
	Level         Level              `gorm:"column:level;size:16" json:"level"`
	CategoryID    string             `gorm:"column:category_id;index" json:"category"`
	InstructorID  string             `gorm:"column:instructor_id;index" json:"instructor"`
	Image         string             `gorm:"column:image" json:"image"`
	IntroVideo    string             `gorm:"column:intro_video" json:"intro_video"`
	ImageURL      string             `gorm:"-" json:"image_url,omitempty"`
	IntroVideoURL string             `gorm:"-" json:"intro_video_url,omitempty"`
	Lectures      []*lecture.Lecture `gorm:"-" json:"lectures,omitempty"`
	CreatedAt     time.Time          `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"column:updated_at" json:"updated_at"`
}

func (Course) TableName() string { return "courses" }
