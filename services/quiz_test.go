package services

import (
	"encoding/json"
	"fmt"
	"testing"

	"coursehub/apperr"
	"coursehub/database/testutil"
	courseModels "coursehub/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitQuizGradesAndStoresAttempt(t *testing.T) {
	f := newFixture(t)
	course := testutil.SeedCourse(t, f.ctx, f.db, "bob", 0)
	testutil.SeedEnrollment(t, f.ctx, f.db, "alice", course.ID, courseModels.PaymentCompleted, "")
	quiz, qs := testutil.SeedQuiz(t, f.ctx, f.db, course.ID, 70,
		testutil.QuestionSpec{CorrectAnswer: "a", Points: 1},
		testutil.QuestionSpec{CorrectAnswer: "b", Points: 1},
		testutil.QuestionSpec{CorrectAnswer: "c", Points: 2},
	)

	answers := map[string]string{
		fmt.Sprint(qs[0].ID): "a",
		fmt.Sprint(qs[1].ID): "B",
		fmt.Sprint(qs[2].ID): "x",
	}
	attempt, err := f.quiz.SubmitQuiz(f.ctx, "alice", quiz.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 2.0, attempt.Score)
	assert.Equal(t, 4.0, attempt.MaxScore)
	assert.Equal(t, 50.0, attempt.Percentage)
	assert.False(t, attempt.Passed)
	require.NotNil(t, attempt.CompletedAt)
	assert.True(t, attempt.CompletedAt.Equal(fixedNow))

	var stored courseModels.QuizAttempt
	require.NoError(t, f.db.Where("id = ?", attempt.ID).First(&stored).Error)
	var decoded map[string]*string
	require.NoError(t, json.Unmarshal(stored.Answers, &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "B", *decoded[fmt.Sprint(qs[1].ID)])
}

func TestSubmitQuizRecordsUnansweredAsNull(t *testing.T) {
	f := newFixture(t)
	course := testutil.SeedCourse(t, f.ctx, f.db, "bob", 0)
	testutil.SeedEnrollment(t, f.ctx, f.db, "alice", course.ID, courseModels.PaymentCompleted, "")
	quiz, qs := testutil.SeedQuiz(t, f.ctx, f.db, course.ID, 50,
		testutil.QuestionSpec{CorrectAnswer: "true", Points: 1},
		testutil.QuestionSpec{CorrectAnswer: "false", Points: 1},
	)

	attempt, err := f.quiz.SubmitQuiz(f.ctx, "alice", quiz.ID, map[string]string{fmt.Sprint(qs[0].ID): "True"})
	require.NoError(t, err)
	assert.True(t, attempt.Passed)

	var decoded map[string]*string
	require.NoError(t, json.Unmarshal(attempt.Answers, &decoded))
	require.Contains(t, decoded, fmt.Sprint(qs[1].ID))
	assert.Nil(t, decoded[fmt.Sprint(qs[1].ID)])
}

func TestSubmitQuizWithoutQuestionsNeverPasses(t *testing.T) {
	f := newFixture(t)
	course := testutil.SeedCourse(t, f.ctx, f.db, "bob", 0)
	testutil.SeedEnrollment(t, f.ctx, f.db, "alice", course.ID, courseModels.PaymentCompleted, "")
	quiz, _ := testutil.SeedQuiz(t, f.ctx, f.db, course.ID, 0)

	attempt, err := f.quiz.SubmitQuiz(f.ctx, "alice", quiz.ID, nil)
	require.NoError(t, err)
	assert.False(t, attempt.Passed)
	assert.Zero(t, attempt.Percentage)
	assert.Zero(t, attempt.MaxScore)
}

func TestSubmitQuizRequiresAccess(t *testing.T) {
	f := newFixture(t)
	course := testutil.SeedCourse(t, f.ctx, f.db, "bob", 1500)
	testutil.SeedEnrollment(t, f.ctx, f.db, "pending", course.ID, courseModels.PaymentPending, "cs_1")
	testutil.SeedEnrollment(t, f.ctx, f.db, "failed", course.ID, courseModels.PaymentFailed, "cs_2")
	quiz, _ := testutil.SeedQuiz(t, f.ctx, f.db, course.ID, 70, testutil.QuestionSpec{CorrectAnswer: "a", Points: 1})

	for _, user := range []string{"nobody", "pending", "failed"} {
		_, err := f.quiz.SubmitQuiz(f.ctx, user, quiz.ID, map[string]string{})
		assert.ErrorIs(t, err, apperr.ErrNotEnrolled, user)

		_, err = f.quiz.TakeQuiz(f.ctx, user, quiz.ID)
		assert.ErrorIs(t, err, apperr.ErrNotEnrolled, user)
	}

	var n int64
	require.NoError(t, f.db.Model(&courseModels.QuizAttempt{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err := f.quiz.SubmitQuiz(f.ctx, "pending", 999, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTakeQuizHidesAnswers(t *testing.T) {
	f := newFixture(t)
	course := testutil.SeedCourse(t, f.ctx, f.db, "bob", 0)
	testutil.SeedEnrollment(t, f.ctx, f.db, "alice", course.ID, courseModels.PaymentCompleted, "")
	quiz, _ := testutil.SeedQuiz(t, f.ctx, f.db, course.ID, 70,
		testutil.QuestionSpec{CorrectAnswer: "a", Points: 1},
		testutil.QuestionSpec{CorrectAnswer: "b", Points: 1},
	)

	got, err := f.quiz.TakeQuiz(f.ctx, "alice", quiz.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	for i, q := range got.Questions {
		assert.Empty(t, q.CorrectAnswer)
		assert.Equal(t, i, q.OrderIndex)
	}

	// grading still sees the stored answers
	var stored []courseModels.QuizQuestion
	require.NoError(t, f.db.Where("quiz_id = ?", quiz.ID).Find(&stored).Error)
	assert.Equal(t, "a", stored[0].CorrectAnswer)
}

func TestAttemptsNewestFirst(t *testing.T) {
	f := newFixture(t)
	course := testutil.SeedCourse(t, f.ctx, f.db, "bob", 0)
	testutil.SeedEnrollment(t, f.ctx, f.db, "alice", course.ID, courseModels.PaymentCompleted, "")
	quiz, qs := testutil.SeedQuiz(t, f.ctx, f.db, course.ID, 70, testutil.QuestionSpec{CorrectAnswer: "a", Points: 1})
	key := fmt.Sprint(qs[0].ID)

	first, err := f.quiz.SubmitQuiz(f.ctx, "alice", quiz.ID, map[string]string{key: "wrong"})
	require.NoError(t, err)
	second, err := f.quiz.SubmitQuiz(f.ctx, "alice", quiz.ID, map[string]string{key: "a"})
	require.NoError(t, err)

	attempts, err := f.quiz.Attempts(f.ctx, "alice", quiz.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, second.ID, attempts[0].ID)
	assert.Equal(t, first.ID, attempts[1].ID)
	assert.True(t, attempts[0].Passed)

	others, err := f.quiz.Attempts(f.ctx, "carol", quiz.ID)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = f.quiz.Attempts(f.ctx, "alice", 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
