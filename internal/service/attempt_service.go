package service

import (
	"errors"
	"time"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/util"
	"exam_center_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SaveAnswerRequest struct {
	ExamQuestionID   uint   `json:"examQuestionId" binding:"required"`
	Text             string `json:"text"`
	SelectedOptionID *uint  `json:"selectedOptionId,omitempty"`
}

// AttemptService covers the student side of an attempt: starting it,
// saving answers while the clock runs, and submitting.
type AttemptService struct {
	AttemptRepo *repository.AttemptRepository
	AnswerRepo  *repository.AnswerRepository
	ExamRepo    *repository.ExamRepository
}

func NewAttemptService(attemptRepo *repository.AttemptRepository, answerRepo *repository.AnswerRepository, examRepo *repository.ExamRepository) *AttemptService {
	return &AttemptService{AttemptRepo: attemptRepo, AnswerRepo: answerRepo, ExamRepo: examRepo}
}

// StartAttempt creates the student's attempt for the exam and starts the
// duration window. One attempt per (student, exam).
func (s *AttemptService) StartAttempt(studentID, examID uint) (*model.Attempt, error) {
	exam, err := s.ExamRepo.FindByID(nil, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	if !exam.IsPublished {
		return nil, util.ErrExamNotFound
	}

	if existing, err := s.AttemptRepo.FindByStudentAndExam(studentID, examID); err == nil {
		if existing.Status == model.AttemptNotStarted {
			now := time.Now()
			existing.StartedAt = &now
			if err := s.AttemptRepo.SetStatus(nil, existing, model.AttemptInProgress); err != nil {
				return nil, err
			}
			if err := s.AttemptRepo.Update(nil, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, util.ErrAttemptAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	attempt := &model.Attempt{
		ExamID:    examID,
		StudentID: studentID,
		Status:    model.AttemptInProgress,
		StartedAt: &now,
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// SaveAnswer records or replaces the student's response to one question
// while the attempt is in progress.
func (s *AttemptService) SaveAnswer(studentID, attemptID uint, req SaveAnswerRequest) (*model.Answer, error) {
	attempt, err := s.AttemptRepo.FindByID(nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptNotInProgress
	}

	answer := &model.Answer{
		AttemptID:        attempt.ID,
		ExamQuestionID:   req.ExamQuestionID,
		Text:             req.Text,
		SelectedOptionID: req.SelectedOptionID,
	}
	if err := s.AnswerRepo.Upsert(answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// SubmitAttempt closes the attempt for further answering.
func (s *AttemptService) SubmitAttempt(studentID, attemptID uint) (*model.Attempt, error) {
	attempt, err := s.AttemptRepo.FindByID(nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status == model.AttemptSubmitted {
		return nil, util.ErrAttemptSubmitted
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptNotInProgress
	}

	now := time.Now()
	attempt.SubmittedAt = &now
	if err := s.AttemptRepo.SetStatus(nil, attempt, model.AttemptSubmitted); err != nil {
		return nil, err
	}
	if err := s.AttemptRepo.Update(nil, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// ProcessExpiredAttempts force-submits in-progress attempts whose exam
// duration has elapsed. Run periodically by the background task loop.
func (s *AttemptService) ProcessExpiredAttempts() int {
	expired, err := s.AttemptRepo.ListExpiredInProgress(time.Now())
	if err != nil {
		logger.Log.Error("failed to list expired attempts", zap.Error(err))
		return 0
	}

	submitted := 0
	for i := range expired {
		attempt := &expired[i]
		now := time.Now()
		attempt.SubmittedAt = &now
		if err := s.AttemptRepo.SetStatus(nil, attempt, model.AttemptSubmitted); err != nil {
			logger.Log.Warn("failed to force-submit expired attempt",
				zap.Uint("attempt_id", attempt.ID), zap.Error(err))
			continue
		}
		if err := s.AttemptRepo.Update(nil, attempt); err != nil {
			logger.Log.Warn("failed to stamp submission time",
				zap.Uint("attempt_id", attempt.ID), zap.Error(err))
			continue
		}
		submitted++
	}
	if submitted > 0 {
		logger.Log.Info("force-submitted expired attempts", zap.Int("count", submitted))
	}
	return submitted
}
