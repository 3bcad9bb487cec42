package testutil

import (
	"context"
	"fmt"
	"testing"

	"coursehub/database"
	"coursehub/logger"
	"coursehub/models"
	courseModels "coursehub/models/course"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB opens a private in-memory sqlite database with the full schema migrated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), true, logger.Nop())
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *models.User {
	tb.Helper()
	email := id + "@example.com"
	u := &models.User{ID: id, Email: &email, FirstName: "Test", LastName: id}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID string, priceCents int64) *courseModels.Course {
	tb.Helper()
	c := &courseModels.Course{
		Title:           "Course " + uuid.NewString()[:8],
		Description:     "A course",
		PriceCents:      priceCents,
		Currency:        "usd",
		InstructorID:    instructorID,
		DifficultyLevel: courseModels.DifficultyBeginner,
		IsPublished:     true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLessons(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uint, n int) []*courseModels.Lesson {
	tb.Helper()
	lessons := make([]*courseModels.Lesson, 0, n)
	for i := 0; i < n; i++ {
		l := &courseModels.Lesson{
			CourseID:   courseID,
			Title:      fmt.Sprintf("Lesson %d", i+1),
			Content:    "content",
			OrderIndex: i,
		}
		if err := tx.WithContext(ctx).Create(l).Error; err != nil {
			tb.Fatalf("seed lesson: %v", err)
		}
		lessons = append(lessons, l)
	}
	return lessons
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID string, courseID uint, status courseModels.PaymentStatus, sessionID string) *courseModels.Enrollment {
	tb.Helper()
	e := &courseModels.Enrollment{
		UserID:        userID,
		CourseID:      courseID,
		PaymentStatus: status,
	}
	if sessionID != "" {
		e.CheckoutSessionID = &sessionID
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

// QuestionSpec describes a question to seed.
type QuestionSpec struct {
	CorrectAnswer string
	Points        float64
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uint, passingScore float64, questions ...QuestionSpec) (*courseModels.Quiz, []*courseModels.QuizQuestion) {
	tb.Helper()
	q := &courseModels.Quiz{CourseID: courseID, Title: "Quiz", PassingScore: passingScore}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	out := make([]*courseModels.QuizQuestion, 0, len(questions))
	for i, spec := range questions {
		qq := &courseModels.QuizQuestion{
			QuizID:        q.ID,
			QuestionText:  fmt.Sprintf("Question %d", i+1),
			QuestionType:  courseModels.QuestionShortAnswer,
			CorrectAnswer: spec.CorrectAnswer,
			Options:       datatypes.JSON([]byte("[]")),
			Points:        spec.Points,
			OrderIndex:    i,
		}
		if err := tx.WithContext(ctx).Create(qq).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		out = append(out, qq)
	}
	return q, out
}
