package service

import (
	"context"
	"fmt"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/util"
	"exam_center_backend/pkg/logger"
	"exam_center_backend/pkg/monitoring"
	"exam_center_backend/pkg/tracing"

	"go.uber.org/zap"
)

// AIGradingStats summarizes one grading pass over an attempt.
type AIGradingStats struct {
	Total       int `json:"total"`
	Graded      int `json:"graded"`
	Failed      int `json:"failed"`
	NeedsReview int `json:"needsReview"`
}

// AIGradingService runs the automated grading pass for an attempt: all
// ungraded free-text answers through the AI grader, then the
// deterministic multiple-choice batch.
type AIGradingService struct {
	AttemptRepo *repository.AttemptRepository
	AnswerRepo  *repository.AnswerRepository
	AutoGrader  *AutoGradeService
	AIGrader    *AIAnswerGrader
}

func NewAIGradingService(attemptRepo *repository.AttemptRepository, answerRepo *repository.AnswerRepository, autoGrader *AutoGradeService, aiGrader *AIAnswerGrader) *AIGradingService {
	return &AIGradingService{
		AttemptRepo: attemptRepo,
		AnswerRepo:  answerRepo,
		AutoGrader:  autoGrader,
		AIGrader:    aiGrader,
	}
}

// GradeAttempt grades every ungraded free-text answer of the attempt
// sequentially, continuing past per-answer failures. The attempt is
// moved to GRADING for the duration of the pass; it stays there only
// when the pass finished with no failures and nothing left ungraded,
// otherwise it reverts to SUBMITTED so the pass can be retried.
func (s *AIGradingService) GradeAttempt(ctx context.Context, attemptID uint) (*AIGradingStats, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ai_grade_attempt")
	defer span.End()

	attempt, err := s.AttemptRepo.FindWithDetails(nil, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Status.IsGradable() {
		return nil, util.ErrAttemptNotGradable
	}

	answers, err := s.AnswerRepo.ListUngradedFreeText(attemptID)
	if err != nil {
		return nil, err
	}

	stats := &AIGradingStats{Total: len(answers)}
	if len(answers) == 0 {
		return stats, nil
	}

	if err := s.AttemptRepo.SetStatus(nil, attempt, model.AttemptGrading); err != nil {
		return nil, err
	}

	exam := attempt.Exam
	if exam == nil {
		s.revertToSubmitted(attempt)
		return nil, fmt.Errorf("attempt %d has no exam loaded", attemptID)
	}

	for i := range answers {
		needsReview, err := s.AIGrader.GradeAnswer(ctx, nil, &answers[i], exam)
		if err != nil {
			stats.Failed++
			monitoring.AIGradedAnswersTotal.WithLabelValues("failed").Inc()
			logger.Log.Warn("AI grading failed for answer",
				zap.Uint("attempt_id", attemptID),
				zap.Uint("answer_id", answers[i].ID),
				zap.Error(err))
			continue
		}
		stats.Graded++
		monitoring.AIGradedAnswersTotal.WithLabelValues("success").Inc()
		if needsReview {
			stats.NeedsReview++
		}
	}

	if stats.Failed > 0 {
		s.revertToSubmitted(attempt)
		return stats, nil
	}

	if _, err := s.AutoGrader.GradeMultipleChoice(nil, attemptID); err != nil {
		s.revertToSubmitted(attempt)
		return stats, err
	}

	ungraded, err := s.AnswerRepo.CountUngraded(nil, attemptID)
	if err != nil {
		s.revertToSubmitted(attempt)
		return stats, err
	}
	if ungraded > 0 {
		s.revertToSubmitted(attempt)
	}
	return stats, nil
}

func (s *AIGradingService) revertToSubmitted(attempt *model.Attempt) {
	if err := s.AttemptRepo.SetStatus(nil, attempt, model.AttemptSubmitted); err != nil {
		logger.Log.Error("failed to revert attempt to SUBMITTED",
			zap.Uint("attempt_id", attempt.ID),
			zap.Error(err))
	}
}
