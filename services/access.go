package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursehub/apperr"
	courseModels "coursehub/models/course"

	"gorm.io/gorm"
)

// Clock returns the current time. Services take it as a field so tests can pin time.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func coursePath(courseID uint) string {
	return fmt.Sprintf("/course/%d", courseID)
}

const catalogPath = "/course/list"

func findCourse(ctx context.Context, tx *gorm.DB, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := tx.WithContext(ctx).Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course").WithRedirect(catalogPath)
		}
		return nil, fmt.Errorf("load course %d: %w", courseID, err)
	}
	return &course, nil
}

// findVisibleCourse hides unpublished courses from everyone but their instructor.
func findVisibleCourse(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*courseModels.Course, error) {
	course, err := findCourse(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.VisibleTo(userID) {
		return nil, apperr.NotFound("course").WithRedirect(catalogPath)
	}
	return course, nil
}

// findEnrollment returns nil, nil when no row exists.
func findEnrollment(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := tx.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	return &enrollment, nil
}

// requireAccess is the single gate for content reads and learner writes. Only
// a completed enrollment grants access; missing, pending and failed rows are
// denied the same way.
func requireAccess(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*courseModels.Enrollment, error) {
	enrollment, err := findEnrollment(ctx, tx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrollment.HasAccess() {
		return nil, apperr.New(apperr.KindNotEnrolled, "you must be enrolled in this course").
			WithRedirect(coursePath(courseID))
	}
	return enrollment, nil
}
