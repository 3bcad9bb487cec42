package course

import "gorm.io/gorm"

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// Course represents a course published by an instructor
type Course struct {
	gorm.Model
	Title           string `json:"title" gorm:"size:200;not null"`
	Description     string `json:"description" gorm:"type:text"`
	PriceCents      int64  `json:"price_cents" gorm:"not null;default:0"`
	Currency        string `json:"currency" gorm:"size:3;default:'usd'"`
	InstructorID    string `json:"instructor_id" gorm:"size:191;index;not null"`
	VideoURL        string `json:"video_url" gorm:"size:500"`
	ThumbnailURL    string `json:"thumbnail_url" gorm:"size:500"`
	DurationMinutes int    `json:"duration_minutes"`
	DifficultyLevel string `json:"difficulty_level" gorm:"size:20;default:'Beginner'"` // Beginner, Intermediate, Advanced
	IsPublished     bool   `json:"is_published" gorm:"default:false"`
}

func (c *Course) IsFree() bool {
	return c.PriceCents == 0
}

// VisibleTo reports whether userID may see the course. Unpublished courses are
// only visible to their instructor.
func (c *Course) VisibleTo(userID string) bool {
	return c.IsPublished || c.InstructorID == userID
}
