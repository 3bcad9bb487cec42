package course

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Enrollment links a learner to a course. At most one row per (user, course).
type Enrollment struct {
	ID                 uint          `json:"id" gorm:"primaryKey"`
	UserID             string        `json:"user_id" gorm:"size:191;not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID           uint          `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	PaymentStatus      PaymentStatus `json:"payment_status" gorm:"size:20;not null;default:'pending';index"`
	CheckoutSessionID  *string       `json:"checkout_session_id,omitempty" gorm:"size:200;index"`
	ProgressPercentage float64       `json:"progress_percentage" gorm:"not null;default:0"`
	EnrolledAt         time.Time     `json:"enrolled_at"`
	CompletedAt        *time.Time    `json:"completed_at"` // set once progress first reaches 100, never cleared
	UpdatedAt          time.Time     `json:"updated_at"`
	Course             *Course       `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (e *Enrollment) HasAccess() bool {
	return e != nil && e.PaymentStatus == PaymentCompleted
}
