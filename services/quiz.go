package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"coursehub/apperr"
	"coursehub/logger"
	courseModels "coursehub/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizService struct {
	db  *gorm.DB
	log *logger.Logger
	now Clock
}

func NewQuizService(db *gorm.DB, baseLog *logger.Logger) *QuizService {
	return &QuizService{
		db:  db,
		log: baseLog.With("service", "QuizService"),
		now: utcNow,
	}
}

func loadQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (*courseModels.Quiz, error) {
	var quiz courseModels.Quiz
	err := tx.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		Where("id = ?", quizID).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quiz")
		}
		return nil, fmt.Errorf("load quiz %d: %w", quizID, err)
	}
	return &quiz, nil
}

// TakeQuiz returns the quiz for an enrolled learner with the correct answers removed.
func (s *QuizService) TakeQuiz(ctx context.Context, userID string, quizID uint) (*courseModels.Quiz, error) {
	quiz, err := loadQuiz(ctx, s.db, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := requireAccess(ctx, s.db, userID, quiz.CourseID); err != nil {
		return nil, err
	}
	for i := range quiz.Questions {
		quiz.Questions[i].CorrectAnswer = ""
	}
	return quiz, nil
}

// SubmitQuiz grades answers and stores the attempt. answers is keyed by
// question id; questions missing from it count as unanswered.
func (s *QuizService) SubmitQuiz(ctx context.Context, userID string, quizID uint, answers map[string]string) (*courseModels.QuizAttempt, error) {
	var attempt *courseModels.QuizAttempt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := loadQuiz(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if _, err := requireAccess(ctx, tx, userID, quiz.CourseID); err != nil {
			return err
		}

		graded := Grade(quiz.Questions, answers, quiz.PassingScore)
		raw, err := json.Marshal(graded.Answers)
		if err != nil {
			return fmt.Errorf("encode answers: %w", err)
		}

		now := s.now()
		attempt = &courseModels.QuizAttempt{
			UserID:      userID,
			QuizID:      quiz.ID,
			Score:       graded.Score,
			MaxScore:    graded.MaxScore,
			Percentage:  graded.Percentage,
			Passed:      graded.Passed,
			Answers:     datatypes.JSON(raw),
			StartedAt:   now,
			CompletedAt: &now,
		}
		if err := tx.Create(attempt).Error; err != nil {
			return fmt.Errorf("create quiz attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quiz submitted", "user_id", userID, "quiz_id", quizID,
		"score", attempt.Score, "max_score", attempt.MaxScore, "passed", attempt.Passed)
	return attempt, nil
}

// Attempts lists the learner's attempts at a quiz, newest first.
func (s *QuizService) Attempts(ctx context.Context, userID string, quizID uint) ([]courseModels.QuizAttempt, error) {
	var quiz courseModels.Quiz
	if err := s.db.WithContext(ctx).Where("id = ?", quizID).First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quiz")
		}
		return nil, fmt.Errorf("load quiz %d: %w", quizID, err)
	}

	attempts := []courseModels.QuizAttempt{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("created_at DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}
