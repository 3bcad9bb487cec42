package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionShortAnswer    = "short_answer"

	DefaultPassingScore   = 70.0
	DefaultQuestionPoints = 1.0
)

// Quiz belongs to a course. TimeLimitMinutes is descriptive only.
type Quiz struct {
	gorm.Model
	CourseID         uint           `json:"course_id" gorm:"index;not null"`
	Title            string         `json:"title" gorm:"size:200;not null"`
	Description      string         `json:"description" gorm:"type:text"`
	PassingScore     float64        `json:"passing_score" gorm:"not null"`
	TimeLimitMinutes *int           `json:"time_limit_minutes"`
	Questions        []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

// QuizQuestion is a single graded question. Options holds a JSON array for choice types.
type QuizQuestion struct {
	gorm.Model
	QuizID        uint           `json:"quiz_id" gorm:"index;not null"`
	QuestionText  string         `json:"question_text" gorm:"type:text;not null"`
	QuestionType  string         `json:"question_type" gorm:"size:20;default:'multiple_choice'"` // multiple_choice, true_false, short_answer
	CorrectAnswer string         `json:"correct_answer,omitempty" gorm:"size:500"`
	Options       datatypes.JSON `json:"options,omitempty"`
	Points        float64        `json:"points" gorm:"not null"`
	OrderIndex    int            `json:"order_index" gorm:"default:0"`
}

// QuizAttempt is one graded submission. Attempts are unlimited.
type QuizAttempt struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      string         `json:"user_id" gorm:"size:191;index;not null"`
	QuizID      uint           `json:"quiz_id" gorm:"index;not null"`
	Score       float64        `json:"score"`
	MaxScore    float64        `json:"max_score"`
	Percentage  float64        `json:"percentage"`
	Passed      bool           `json:"passed" gorm:"default:false"`
	Answers     datatypes.JSON `json:"answers"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
}
