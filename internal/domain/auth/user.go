package auth

import "time"

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

type User struct {
	ID                  string     `gorm:"column:id;primaryKey" json:"id"`
	Email               string     `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	PasswordHash        string     `gorm:"column:password_hash" json:"-"`
	Role                UserRole   `gorm:"column:role;size:32;index" json:"role"`
	Name                string     `gorm:"column:name" json:"name"`
	ProfileImage        string     `gorm:"column:profile_image" json:"profile_image,omitempty"`
	ProfileImageURL     string     `gorm:"-" json:"profile_image_url,omitempty"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `gorm:"column:locked_until" json:"-"`
	CreatedAt           time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }
