package course

import "time"

// Progress is a single lesson-completion fact for a learner.
type Progress struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	UserID           string     `json:"user_id" gorm:"size:191;not null;uniqueIndex:idx_progress_user_course_lesson"`
	CourseID         uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_progress_user_course_lesson"`
	LessonID         uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_user_course_lesson"`
	Completed        bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt      *time.Time `json:"completed_at"`
	WatchTimeSeconds int        `json:"watch_time_seconds" gorm:"not null;default:0"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
