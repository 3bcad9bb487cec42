package course

import "gorm.io/gorm"

// Lesson is a unit of course content. OrderIndex is display order only.
type Lesson struct {
	gorm.Model
	CourseID        uint   `json:"course_id" gorm:"index;not null"`
	Title           string `json:"title" gorm:"size:200;not null"`
	Content         string `json:"content,omitempty" gorm:"type:text"`
	VideoURL        string `json:"video_url,omitempty" gorm:"size:500"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"`
	DurationMinutes int    `json:"duration_minutes"`
}
