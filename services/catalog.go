package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursehub/apperr"
	"coursehub/logger"
	courseModels "coursehub/models/course"
	"coursehub/utils"

	"gorm.io/gorm"
)

type CatalogService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogService(db *gorm.DB, baseLog *logger.Logger) *CatalogService {
	return &CatalogService{
		db:  db,
		log: baseLog.With("service", "CatalogService"),
	}
}

// CourseFilter narrows the published catalog.
type CourseFilter struct {
	Search     string
	Difficulty string
	Page       int
	Limit      int
}

type CoursePage struct {
	Courses []courseModels.Course `json:"courses"`
	Total   int64                 `json:"total"`
	Page    int                   `json:"page"`
	Limit   int                   `json:"limit"`
}

// CourseDetail is everything the course page shows. Enrollment and Progress
// are only filled for the requesting learner.
type CourseDetail struct {
	Course     *courseModels.Course     `json:"course"`
	Lessons    []courseModels.Lesson    `json:"lessons"`
	Quizzes    []courseModels.Quiz      `json:"quizzes"`
	Enrollment *courseModels.Enrollment `json:"enrollment"`
	Progress   []courseModels.Progress  `json:"progress"`
}

type Dashboard struct {
	Enrollments   []courseModels.Enrollment `json:"enrollments"`
	RecentCourses []courseModels.Course     `json:"recent_courses"`
}

const recentCoursesLimit = 4

// ListCourses returns published courses, newest first.
func (s *CatalogService) ListCourses(ctx context.Context, f CourseFilter) (*CoursePage, error) {
	page, limit, offset := utils.Pagination(f.Page, f.Limit)

	query := s.db.WithContext(ctx).Model(&courseModels.Course{}).Where("is_published = ?", true)
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if f.Difficulty != "" {
		query = query.Where("difficulty_level = ?", f.Difficulty)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}

	courses := []courseModels.Course{}
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return &CoursePage{Courses: courses, Total: total, Page: page, Limit: limit}, nil
}

// CourseDetail returns the course page. Lesson bodies are left out; they are
// served by LessonContent behind the access gate.
func (s *CatalogService) CourseDetail(ctx context.Context, userID string, courseID uint) (*CourseDetail, error) {
	course, err := findVisibleCourse(ctx, s.db, userID, courseID)
	if err != nil {
		return nil, err
	}
	out := &CourseDetail{
		Course:   course,
		Lessons:  []courseModels.Lesson{},
		Quizzes:  []courseModels.Quiz{},
		Progress: []courseModels.Progress{},
	}

	db := s.db.WithContext(ctx)
	if err := db.Select("id", "created_at", "updated_at", "course_id", "title", "order_index", "duration_minutes").
		Where("course_id = ?", courseID).
		Order("order_index ASC, id ASC").
		Find(&out.Lessons).Error; err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	if err := db.Where("course_id = ?", courseID).Order("id ASC").Find(&out.Quizzes).Error; err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	out.Enrollment, err = findEnrollment(ctx, db, userID, courseID)
	if err != nil {
		return nil, err
	}
	if out.Enrollment.HasAccess() {
		if err := liveProgress(db, userID, courseID).Find(&out.Progress).Error; err != nil {
			return nil, fmt.Errorf("load progress: %w", err)
		}
	}
	return out, nil
}

// LessonContent returns a full lesson. The course instructor can always read
// it; learners need a completed enrollment.
func (s *CatalogService) LessonContent(ctx context.Context, userID string, lessonID uint) (*courseModels.Lesson, error) {
	var lesson courseModels.Lesson
	if err := s.db.WithContext(ctx).Where("id = ?", lessonID).First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("lesson")
		}
		return nil, fmt.Errorf("load lesson %d: %w", lessonID, err)
	}

	course, err := findVisibleCourse(ctx, s.db, userID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID == userID {
		return &lesson, nil
	}
	if _, err := requireAccess(ctx, s.db, userID, lesson.CourseID); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Dashboard lists the learner's enrollments with their courses plus the most
// recently published courses.
func (s *CatalogService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	out := &Dashboard{
		Enrollments:   []courseModels.Enrollment{},
		RecentCourses: []courseModels.Course{},
	}
	db := s.db.WithContext(ctx)
	if err := db.Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC, id DESC").
		Find(&out.Enrollments).Error; err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if err := db.Where("is_published = ?", true).
		Order("created_at DESC, id DESC").
		Limit(recentCoursesLimit).
		Find(&out.RecentCourses).Error; err != nil {
		return nil, fmt.Errorf("list recent courses: %w", err)
	}
	return out, nil
}
