package services

import (
	"testing"

	courseModels "coursehub/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func question(id uint, answer string, points float64) courseModels.QuizQuestion {
	return courseModels.QuizQuestion{Model: gorm.Model{ID: id}, CorrectAnswer: answer, Points: points}
}

func TestGradeCaseInsensitive(t *testing.T) {
	questions := []courseModels.QuizQuestion{
		question(1, "a", 1),
		question(2, "b", 1),
		question(3, "c", 2),
	}
	res := Grade(questions, map[string]string{"1": "a", "2": "B", "3": "x"}, 70)

	assert.Equal(t, 2.0, res.Score)
	assert.Equal(t, 4.0, res.MaxScore)
	assert.Equal(t, 50.0, res.Percentage)
	assert.False(t, res.Passed)
	require.Len(t, res.Answers, 3)
	assert.Equal(t, "B", *res.Answers["2"])
}

func TestGradeUnansweredQuestions(t *testing.T) {
	questions := []courseModels.QuizQuestion{
		question(1, "yes", 1),
		question(2, "no", 1),
	}
	res := Grade(questions, map[string]string{"1": "YES", "99": "stray"}, 50)

	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, 50.0, res.Percentage)
	assert.True(t, res.Passed, "percentage equal to the passing score passes")
	require.Len(t, res.Answers, 2)
	assert.Nil(t, res.Answers["2"])
	assert.NotContains(t, res.Answers, "99")
}

func TestGradeNoNormalizationBeyondCase(t *testing.T) {
	questions := []courseModels.QuizQuestion{question(1, "Paris", 1)}

	assert.Zero(t, Grade(questions, map[string]string{"1": " paris"}, 70).Score)
	assert.Equal(t, 1.0, Grade(questions, map[string]string{"1": "PARIS"}, 70).Score)
}

func TestGradeEmptyAnswerNeverScores(t *testing.T) {
	questions := []courseModels.QuizQuestion{question(1, "", 1)}
	res := Grade(questions, map[string]string{"1": ""}, 0)

	assert.Zero(t, res.Score)
	require.NotNil(t, res.Answers["1"])
	assert.Equal(t, "", *res.Answers["1"])
}

func TestGradeEmptyQuiz(t *testing.T) {
	res := Grade(nil, map[string]string{"1": "a"}, 0)

	assert.Zero(t, res.Score)
	assert.Zero(t, res.MaxScore)
	assert.Zero(t, res.Percentage)
	assert.False(t, res.Passed)
	assert.Empty(t, res.Answers)
}
