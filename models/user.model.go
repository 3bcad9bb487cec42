package models

import "time"

// User mirrors the principal supplied by the identity provider. ID is the
// provider's stable subject.
type User struct {
	ID              string    `json:"id" gorm:"primaryKey;size:191"`
	Email           *string   `json:"email" gorm:"size:191;uniqueIndex"`
	FirstName       string    `json:"first_name" gorm:"size:100"`
	LastName        string    `json:"last_name" gorm:"size:100"`
	ProfileImageURL string    `json:"profile_image_url" gorm:"size:500"`
	IsInstructor    bool      `json:"is_instructor" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" && u.Email != nil {
		return *u.Email
	}
	return name
}
