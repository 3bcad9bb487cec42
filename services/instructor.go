package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"coursehub/apperr"
	"coursehub/logger"
	"coursehub/models"
	courseModels "coursehub/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InstructorService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInstructorService(db *gorm.DB, baseLog *logger.Logger) *InstructorService {
	return &InstructorService{
		db:  db,
		log: baseLog.With("service", "InstructorService"),
	}
}

type CourseInput struct {
	Title           string `json:"title" validate:"required,min=3,max=200"`
	Description     string `json:"description" validate:"max=10000"`
	PriceCents      int64  `json:"price_cents" validate:"gte=0"`
	Currency        string `json:"currency" validate:"omitempty,len=3,alpha"`
	VideoURL        string `json:"video_url" validate:"omitempty,url,max=500"`
	ThumbnailURL    string `json:"thumbnail_url" validate:"omitempty,url,max=500"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
	DifficultyLevel string `json:"difficulty_level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
}

type LessonInput struct {
	Title           string `json:"title" validate:"required,min=1,max=200"`
	Content         string `json:"content"`
	VideoURL        string `json:"video_url" validate:"max=500"`
	OrderIndex      int    `json:"order_index" validate:"gte=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
}

type QuizInput struct {
	Title            string   `json:"title" validate:"required,min=1,max=200"`
	Description      string   `json:"description"`
	PassingScore     *float64 `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	TimeLimitMinutes *int     `json:"time_limit_minutes" validate:"omitempty,gt=0"`
}

type QuestionInput struct {
	QuestionText  string   `json:"question_text" validate:"required"`
	QuestionType  string   `json:"question_type" validate:"omitempty,oneof=multiple_choice true_false short_answer"`
	CorrectAnswer string   `json:"correct_answer" validate:"required,max=500"`
	Options       []string `json:"options" validate:"omitempty,dive,required"`
	Points        *float64 `json:"points" validate:"omitempty,gt=0"`
	OrderIndex    int      `json:"order_index" validate:"gte=0"`
}

type InstructorDashboard struct {
	Courses          []courseModels.Course `json:"courses"`
	TotalStudents    int64                 `json:"total_students"`
	PublishedCourses int                   `json:"published_courses"`
}

// ownedCourse hides other instructors' courses behind NotFound.
func ownedCourse(ctx context.Context, tx *gorm.DB, instructorID string, courseID uint) (*courseModels.Course, error) {
	course, err := findCourse(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != instructorID {
		return nil, apperr.NotFound("course")
	}
	return course, nil
}

// CreateCourse stores a new unpublished course and marks its author as an instructor.
func (s *InstructorService) CreateCourse(ctx context.Context, instructorID string, in CourseInput) (*courseModels.Course, error) {
	if in.PriceCents < 0 {
		return nil, apperr.New(apperr.KindInvalid, "price must not be negative")
	}
	course := &courseModels.Course{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		PriceCents:      in.PriceCents,
		Currency:        strings.ToLower(in.Currency),
		InstructorID:    instructorID,
		VideoURL:        in.VideoURL,
		ThumbnailURL:    in.ThumbnailURL,
		DurationMinutes: in.DurationMinutes,
		DifficultyLevel: in.DifficultyLevel,
	}
	if course.DifficultyLevel == "" {
		course.DifficultyLevel = courseModels.DifficultyBeginner
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return fmt.Errorf("create course: %w", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND is_instructor = ?", instructorID, false).
			Update("is_instructor", true).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("course created", "course_id", course.ID, "instructor_id", instructorID)
	return course, nil
}

// SetPublished opens or closes a course for enrollment.
func (s *InstructorService) SetPublished(ctx context.Context, instructorID string, courseID uint, published bool) (*courseModels.Course, error) {
	course, err := ownedCourse(ctx, s.db, instructorID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(course).Update("is_published", published).Error; err != nil {
		return nil, fmt.Errorf("publish course %d: %w", courseID, err)
	}
	course.IsPublished = published
	s.log.Info("course publish state changed", "course_id", courseID, "published", published)
	return course, nil
}

func (s *InstructorService) AddLesson(ctx context.Context, instructorID string, courseID uint, in LessonInput) (*courseModels.Lesson, error) {
	if _, err := ownedCourse(ctx, s.db, instructorID, courseID); err != nil {
		return nil, err
	}
	lesson := &courseModels.Lesson{
		CourseID:        courseID,
		Title:           strings.TrimSpace(in.Title),
		Content:         in.Content,
		VideoURL:        in.VideoURL,
		OrderIndex:      in.OrderIndex,
		DurationMinutes: in.DurationMinutes,
	}
	if err := s.db.WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	return lesson, nil
}

func (s *InstructorService) AddQuiz(ctx context.Context, instructorID string, courseID uint, in QuizInput) (*courseModels.Quiz, error) {
	if _, err := ownedCourse(ctx, s.db, instructorID, courseID); err != nil {
		return nil, err
	}
	passing := courseModels.DefaultPassingScore
	if in.PassingScore != nil {
		passing = *in.PassingScore
	}
	if passing < 0 || passing > 100 {
		return nil, apperr.New(apperr.KindInvalid, "passing_score must be between 0 and 100")
	}
	quiz := &courseModels.Quiz{
		CourseID:         courseID,
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		PassingScore:     passing,
		TimeLimitMinutes: in.TimeLimitMinutes,
	}
	if err := s.db.WithContext(ctx).Create(quiz).Error; err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

func (s *InstructorService) AddQuestion(ctx context.Context, instructorID string, quizID uint, in QuestionInput) (*courseModels.QuizQuestion, error) {
	var quiz courseModels.Quiz
	if err := s.db.WithContext(ctx).Where("id = ?", quizID).First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quiz")
		}
		return nil, fmt.Errorf("load quiz %d: %w", quizID, err)
	}
	if _, err := ownedCourse(ctx, s.db, instructorID, quiz.CourseID); err != nil {
		return nil, apperr.NotFound("quiz")
	}

	points := courseModels.DefaultQuestionPoints
	if in.Points != nil {
		points = *in.Points
	}
	if points <= 0 {
		return nil, apperr.New(apperr.KindInvalid, "points must be positive")
	}
	qtype := in.QuestionType
	if qtype == "" {
		qtype = courseModels.QuestionMultipleChoice
	}
	options := in.Options
	if options == nil {
		options = []string{}
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}

	question := &courseModels.QuizQuestion{
		QuizID:        quiz.ID,
		QuestionText:  in.QuestionText,
		QuestionType:  qtype,
		CorrectAnswer: in.CorrectAnswer,
		Options:       datatypes.JSON(raw),
		Points:        points,
		OrderIndex:    in.OrderIndex,
	}
	if err := s.db.WithContext(ctx).Create(question).Error; err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}

// Dashboard summarizes the instructor's courses. TotalStudents counts
// enrollments that have been paid for or were free.
func (s *InstructorService) Dashboard(ctx context.Context, instructorID string) (*InstructorDashboard, error) {
	out := &InstructorDashboard{Courses: []courseModels.Course{}}
	db := s.db.WithContext(ctx)
	if err := db.Where("instructor_id = ?", instructorID).
		Order("created_at DESC, id DESC").
		Find(&out.Courses).Error; err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	for _, c := range out.Courses {
		if c.IsPublished {
			out.PublishedCourses++
		}
	}

	err := db.Model(&courseModels.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id AND courses.deleted_at IS NULL").
		Where("courses.instructor_id = ? AND enrollments.payment_status = ?", instructorID, courseModels.PaymentCompleted).
		Count(&out.TotalStudents).Error
	if err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	return out, nil
}
