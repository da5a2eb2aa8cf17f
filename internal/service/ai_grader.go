package service

import (
	"context"
	"strings"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"

	"gorm.io/gorm"
)

// AIAnswerGrader grades a single free-text answer through the scoring
// client and persists the grade. Low-confidence results are flagged for
// teacher review but still persisted as normal grades.
type AIAnswerGrader struct {
	Client              GradingClient
	GradeRepo           *repository.GradeRepository
	ConfidenceThreshold float64
	MaxAnswerChars      int
}

func NewAIAnswerGrader(client GradingClient, gradeRepo *repository.GradeRepository, confidenceThreshold float64, maxAnswerChars int) *AIAnswerGrader {
	return &AIAnswerGrader{
		Client:              client,
		GradeRepo:           gradeRepo,
		ConfidenceThreshold: confidenceThreshold,
		MaxAnswerChars:      maxAnswerChars,
	}
}

// GradeAnswer scores one answer and upserts its grade. The answer must
// carry its ExamQuestion and Question preloads. Returns whether the
// persisted grade was flagged for review.
func (g *AIAnswerGrader) GradeAnswer(ctx context.Context, tx *gorm.DB, answer *model.Answer, exam *model.Exam) (bool, error) {
	eq := answer.ExamQuestion
	question := eq.Question

	text := strings.TrimSpace(answer.Text)
	if text == "" {
		// Empty answers are graded deterministically, no model call.
		confidence := 1.0
		grade := &model.Grade{
			AnswerID:     answer.ID,
			MarksAwarded: 0,
			MaxMarks:     eq.Marks,
			Feedback:     "No answer provided.",
			Source:       model.GradeSourceAI,
			Confidence:   &confidence,
			NeedsReview:  false,
		}
		return false, g.GradeRepo.Upsert(tx, grade)
	}

	if g.MaxAnswerChars > 0 {
		if runes := []rune(text); len(runes) > g.MaxAnswerChars {
			text = string(runes[:g.MaxAnswerChars])
		}
	}

	resp, err := g.Client.Score(ctx, ScoreRequest{
		QuestionType:    question.QuestionType,
		QuestionTitle:   question.Title,
		QuestionContent: question.Content,
		ModelAnswer:     question.ModelAnswer,
		SubjectName:     exam.SubjectName,
		Difficulty:      exam.Difficulty,
		MaxMarks:        eq.Marks,
		AnswerText:      text,
	})
	if err != nil {
		return false, err
	}

	marks := resp.MarksAwarded
	if marks < 0 {
		marks = 0
	}
	if marks > eq.Marks {
		marks = eq.Marks
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	feedback := resp.Feedback
	if question.QuestionType == model.QuestionLongAnswer {
		feedback = composeLongAnswerFeedback(resp)
	}

	needsReview := confidence < g.ConfidenceThreshold
	grade := &model.Grade{
		AnswerID:     answer.ID,
		MarksAwarded: marks,
		MaxMarks:     eq.Marks,
		Feedback:     feedback,
		Source:       model.GradeSourceAI,
		Confidence:   &confidence,
		NeedsReview:  needsReview,
	}
	if err := g.GradeRepo.Upsert(tx, grade); err != nil {
		return false, err
	}
	return needsReview, nil
}
