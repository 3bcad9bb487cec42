package services

import (
	"strconv"
	"strings"

	courseModels "coursehub/models/course"
)

// GradeResult is the outcome of grading one submission.
type GradeResult struct {
	Score      float64
	MaxScore   float64
	Percentage float64
	Passed     bool
	// Answers has one entry per question, keyed by question id. Unanswered
	// questions map to nil.
	Answers map[string]*string
}

// Grade scores answers against questions. An answer is correct when it equals
// the stored answer ignoring case; no other normalization is applied. A quiz
// with no points is never passed.
func Grade(questions []courseModels.QuizQuestion, answers map[string]string, passingScore float64) GradeResult {
	res := GradeResult{Answers: make(map[string]*string, len(questions))}

	for _, q := range questions {
		key := strconv.FormatUint(uint64(q.ID), 10)
		res.MaxScore += q.Points

		given, ok := answers[key]
		if !ok {
			res.Answers[key] = nil
			continue
		}
		answer := given
		res.Answers[key] = &answer

		if given != "" && strings.EqualFold(given, q.CorrectAnswer) {
			res.Score += q.Points
		}
	}

	if res.MaxScore > 0 {
		res.Percentage = res.Score / res.MaxScore * 100
		res.Passed = res.Percentage >= passingScore
	}
	return res
}
