package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursehub/apperr"
	"coursehub/logger"
	courseModels "coursehub/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressService struct {
	db  *gorm.DB
	log *logger.Logger
	now Clock
}

func NewProgressService(db *gorm.DB, baseLog *logger.Logger) *ProgressService {
	return &ProgressService{
		db:  db,
		log: baseLog.With("service", "ProgressService"),
		now: utcNow,
	}
}

// LessonCompletion is the result of marking a lesson complete.
type LessonCompletion struct {
	Progress        *courseModels.Progress `json:"progress"`
	Percentage      float64                `json:"progress_percentage"`
	CourseCompleted bool                   `json:"course_completed"`
}

// CourseProgress is a learner's view of their progress in one course.
type CourseProgress struct {
	Enrollment *courseModels.Enrollment `json:"enrollment"`
	Lessons    []courseModels.Progress  `json:"lessons"`
	Percentage float64                  `json:"progress_percentage"`
}

// CompletionPercentage is completed/total*100, or 0 for a course without lessons.
func CompletionPercentage(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return float64(completed) / float64(total) * 100
}

// MarkLessonComplete records the lesson as completed for the learner and
// recomputes the enrollment's progress in the same transaction. Repeating the
// call is harmless. watchSeconds only ever raises the stored watch time.
func (s *ProgressService) MarkLessonComplete(ctx context.Context, userID string, lessonID uint, watchSeconds int) (*LessonCompletion, error) {
	if watchSeconds < 0 {
		return nil, apperr.New(apperr.KindInvalid, "watch_time_seconds must not be negative")
	}

	var out LessonCompletion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson courseModels.Lesson
		if err := tx.Where("id = ?", lessonID).First(&lesson).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("lesson")
			}
			return fmt.Errorf("load lesson %d: %w", lessonID, err)
		}

		enrollment, err := requireAccess(ctx, tx, userID, lesson.CourseID)
		if err != nil {
			return err
		}

		now := s.now()
		progress := courseModels.Progress{
			UserID:           userID,
			CourseID:         lesson.CourseID,
			LessonID:         lesson.ID,
			Completed:        true,
			CompletedAt:      &now,
			WatchTimeSeconds: watchSeconds,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"completed":    true,
				"completed_at": now,
				"updated_at":   now,
			}),
		}).Create(&progress).Error
		if err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		if watchSeconds > 0 {
			err = tx.Model(&courseModels.Progress{}).
				Where("user_id = ? AND course_id = ? AND lesson_id = ? AND watch_time_seconds < ?",
					userID, lesson.CourseID, lesson.ID, watchSeconds).
				Update("watch_time_seconds", watchSeconds).Error
			if err != nil {
				return fmt.Errorf("update watch time: %w", err)
			}
		}

		// The conflict path does not reliably return the row id on every dialect.
		var stored courseModels.Progress
		err = tx.Where("user_id = ? AND course_id = ? AND lesson_id = ?", userID, lesson.CourseID, lesson.ID).
			First(&stored).Error
		if err != nil {
			return fmt.Errorf("reload progress: %w", err)
		}

		pct, err := recomputeProgress(ctx, tx, enrollment, now)
		if err != nil {
			return err
		}

		out = LessonCompletion{
			Progress:        &stored,
			Percentage:      pct,
			CourseCompleted: pct >= 100,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("lesson completed", "user_id", userID, "lesson_id", lessonID, "progress", out.Percentage)
	return &out, nil
}

// CourseProgress returns the learner's progress in a course. A learner without
// an enrollment gets an empty result rather than an error.
func (s *ProgressService) CourseProgress(ctx context.Context, userID string, courseID uint) (*CourseProgress, error) {
	if _, err := findVisibleCourse(ctx, s.db, userID, courseID); err != nil {
		return nil, err
	}
	enrollment, err := findEnrollment(ctx, s.db, userID, courseID)
	if err != nil {
		return nil, err
	}
	out := &CourseProgress{Enrollment: enrollment, Lessons: []courseModels.Progress{}}
	if enrollment == nil {
		return out, nil
	}

	err = liveProgress(s.db.WithContext(ctx), userID, courseID).
		Order("progresses.completed_at ASC").
		Find(&out.Lessons).Error
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	out.Percentage = enrollment.ProgressPercentage
	return out, nil
}

// liveProgress selects the learner's progress rows whose lesson still exists.
func liveProgress(tx *gorm.DB, userID string, courseID uint) *gorm.DB {
	return tx.Model(&courseModels.Progress{}).
		Joins("JOIN lessons ON lessons.id = progresses.lesson_id AND lessons.course_id = progresses.course_id AND lessons.deleted_at IS NULL").
		Where("progresses.user_id = ? AND progresses.course_id = ?", userID, courseID)
}

// recomputeProgress refreshes enrollment.progress_percentage from the progress
// rows. completed_at is stamped the first time the course reaches 100 and is
// never cleared afterwards, even if lessons are added later.
func recomputeProgress(ctx context.Context, tx *gorm.DB, enrollment *courseModels.Enrollment, now time.Time) (float64, error) {
	var total int64
	if err := tx.WithContext(ctx).Model(&courseModels.Lesson{}).
		Where("course_id = ?", enrollment.CourseID).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}

	var completed int64
	if err := liveProgress(tx.WithContext(ctx), enrollment.UserID, enrollment.CourseID).
		Where("progresses.completed = ?", true).
		Count(&completed).Error; err != nil {
		return 0, fmt.Errorf("count completed lessons: %w", err)
	}

	pct := CompletionPercentage(completed, total)
	err := tx.WithContext(ctx).Model(&courseModels.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"progress_percentage": pct,
			"updated_at":          now,
		}).Error
	if err != nil {
		return 0, fmt.Errorf("update progress percentage: %w", err)
	}

	if pct >= 100 {
		err = tx.WithContext(ctx).Model(&courseModels.Enrollment{}).
			Where("id = ? AND completed_at IS NULL", enrollment.ID).
			Update("completed_at", now).Error
		if err != nil {
			return 0, fmt.Errorf("stamp course completion: %w", err)
		}
	}
	return pct, nil
}
