package upload

import "time"

// Kind says what a stored file is for; it decides the key prefix and the
// accepted MIME family.
type Kind string

const (
	KindImage        Kind = "image"
	KindIntroVideo   Kind = "intro_video"
	KindLectureVideo Kind = "lecture_video"
	KindProfileImage Kind = "profile_image"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAttached Status = "attached"
	StatusDeleted  Status = "deleted"
)

// Upload is a ledger row for one stored file. Files start pending and are
// attached once a course (or lecture, or profile) references them. Pending
// rows older than the orphan TTL are swept.
type Upload struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	Key          string    `gorm:"column:storage_key;size:512;uniqueIndex" json:"key"`
	Kind         Kind      `gorm:"column:kind;size:32" json:"kind"`
	Status       Status    `gorm:"column:status;size:16;index" json:"status"`
	CourseID     *string   `gorm:"column:course_id;index" json:"course_id,omitempty"`
	UploadedBy   string    `gorm:"column:uploaded_by" json:"uploaded_by"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	Size         int64     `gorm:"column:size" json:"size"`
	CreatedAt    time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Upload) TableName() string { return "uploads" }

// CourseFiles is the result of the course media upload step.
type CourseFiles struct {
	Image      string `json:"image"`
	IntroVideo string `json:"intro_video"`
}

type CleanupResult struct {
	Deleted []string `json:"deleted"`
	Skipped []string `json:"skipped"`
}

type SweepResult struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}
