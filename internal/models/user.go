// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// DefaultProfilePicture is the media reference given to new profiles.
const DefaultProfilePicture = "profile_pics/default.jpg"

// User represents an account. Usernames are stored lowercase.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string    `gorm:"size:254" json:"email,omitempty"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Profile   *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// BeforeSave keeps usernames case-normalized.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Username = NormalizeUsername(u.Username)
	return nil
}

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Profile holds the public details of a user. Exactly one exists per user.
type Profile struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio            string     `gorm:"type:text" json:"bio"`
	ProfilePicture string     `gorm:"default:'profile_pics/default.jpg'" json:"profile_picture"`
	CoverPhoto     string     `json:"cover_photo"`
	Location       string     `gorm:"size:100" json:"location"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}
