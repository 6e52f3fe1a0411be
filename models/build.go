package models

import (
	"time"
)

// Build is one vehicle entry owned by exactly one user. A build always keeps
// at least one image for as long as it exists.
type Build struct {
	ID          string    `json:"id" gorm:"primaryKey;size:191"`
	UserID      string    `json:"user_id" gorm:"not null;index;size:191"`
	Title       string    `json:"title" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"size:2000"`
	CarMake     string    `json:"car_make" gorm:"not null;size:100"`
	CarModel    string    `json:"car_model" gorm:"not null;size:100"`
	CarYear     int       `json:"car_year" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Images []Image `json:"images" gorm:"foreignKey:BuildID"`
}

// Image is one photo attached to a build. URL is the stored blob reference
// under the public uploads directory.
type Image struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	BuildID   string    `json:"build_id" gorm:"not null;index;size:191"`
	URL       string    `json:"url" gorm:"not null;size:500"`
	CreatedAt time.Time `json:"created_at"`
}

// BuildOwner is the slimmed owner view joined into the public feed.
type BuildOwner struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// PublicBuild is a build with its owner's display fields for the public feed.
type PublicBuild struct {
	Build
	Owner BuildOwner `json:"owner"`
}
