package models

import (
	"time"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string    `json:"-" gorm:"not null;size:255"`
	IsAdmin   bool      `json:"is_admin" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Profile Profile `json:"profile" gorm:"foreignKey:UserID"`
	Builds  []Build `json:"builds,omitempty" gorm:"foreignKey:UserID"`
}

type Profile struct {
	ID           string    `json:"id" gorm:"primaryKey;size:191"`
	UserID       string    `json:"user_id" gorm:"uniqueIndex;not null;size:191"`
	Bio          string    `json:"bio" gorm:"size:500"`
	Location     string    `json:"location" gorm:"size:255"`
	AvatarURL    string    `json:"avatar_url" gorm:"size:500"`
	InstagramURL string    `json:"instagram_url" gorm:"size:500"`
	FacebookURL  string    `json:"facebook_url" gorm:"size:500"`
	YoutubeURL   string    `json:"youtube_url" gorm:"size:500"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
