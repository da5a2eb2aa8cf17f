package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/internal/util"

	"gorm.io/gorm"
)

type GradeAnswerRequest struct {
	Marks    float64 `json:"marks" binding:"min=0"`
	Feedback string  `json:"feedback"`
}

type BatchGradeItem struct {
	AnswerID uint    `json:"answerId" binding:"required"`
	Marks    float64 `json:"marks" binding:"min=0"`
	Feedback string  `json:"feedback"`
}

type BatchGradeRequest struct {
	Items        []BatchGradeItem `json:"items" binding:"required,dive"`
	AutoFinalize bool             `json:"autoFinalize"`
}

type BatchGradeItemError struct {
	AnswerID uint   `json:"answerId"`
	Error    string `json:"error"`
}

type BatchGradeResult struct {
	Applied   int                   `json:"applied"`
	Errors    []BatchGradeItemError `json:"errors,omitempty"`
	Finalized bool                  `json:"finalized"`
	Result    *model.Result         `json:"result,omitempty"`
}

type ApproveGradeRequest struct {
	Marks    *float64 `json:"marks,omitempty"`
	Feedback *string  `json:"feedback,omitempty"`
}

// GradingService is the orchestration surface teachers and admins call:
// manual grading, AI grading, review, finalize and reopen.
type GradingService struct {
	AttemptRepo   *repository.AttemptRepository
	AnswerRepo    *repository.AnswerRepository
	GradeRepo     *repository.GradeRepository
	ResultRepo    *repository.ResultRepository
	ExamRepo      *repository.ExamRepository
	UserRepo      *repository.UserRepository
	AutoGrader    *AutoGradeService
	Orchestrator  *AIGradingService
	Aggregator    *ResultService
	Notifications *NotificationService
	Audit         *AuditService
	DB            *gorm.DB
}

func NewGradingService(
	db *gorm.DB,
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	gradeRepo *repository.GradeRepository,
	resultRepo *repository.ResultRepository,
	examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository,
	autoGrader *AutoGradeService,
	orchestrator *AIGradingService,
	aggregator *ResultService,
	notifications *NotificationService,
	audit *AuditService,
) *GradingService {
	return &GradingService{
		DB:            db,
		AttemptRepo:   attemptRepo,
		AnswerRepo:    answerRepo,
		GradeRepo:     gradeRepo,
		ResultRepo:    resultRepo,
		ExamRepo:      examRepo,
		UserRepo:      userRepo,
		AutoGrader:    autoGrader,
		Orchestrator:  orchestrator,
		Aggregator:    aggregator,
		Notifications: notifications,
		Audit:         audit,
	}
}

// requireOwnership allows the exam's creator and admins through.
func requireOwnership(exam *model.Exam, actorID uint, role model.UserRole) error {
	if role == model.Admin || exam.CreatorID == actorID {
		return nil
	}
	return util.ErrPermissionDenied
}

// attemptExam loads the attempt together with its exam and runs the
// ownership check. Shared entry validation for every operation here.
func (s *GradingService) attemptExam(attemptID, actorID uint, role model.UserRole) (*model.Attempt, *model.Exam, error) {
	attempt, err := s.AttemptRepo.FindByID(nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrAttemptNotFound
		}
		return nil, nil, err
	}
	exam, err := s.ExamRepo.FindByID(nil, attempt.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrExamNotFound
		}
		return nil, nil, err
	}
	if err := requireOwnership(exam, actorID, role); err != nil {
		return nil, nil, err
	}
	return attempt, exam, nil
}

// GetSession returns the attempt with its answers, questions and grades
// for the review screen.
func (s *GradingService) GetSession(actorID uint, role model.UserRole, attemptID uint) (*model.Attempt, error) {
	if _, _, err := s.attemptExam(attemptID, actorID, role); err != nil {
		return nil, err
	}
	return s.AttemptRepo.FindWithDetails(nil, attemptID)
}

// GradeAnswer applies a teacher grade to a single answer.
func (s *GradingService) GradeAnswer(actorID uint, role model.UserRole, answerID uint, req GradeAnswerRequest) (*model.Grade, error) {
	answer, err := s.AnswerRepo.FindByID(nil, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAnswerNotFound
		}
		return nil, err
	}
	attempt, _, err := s.attemptExam(answer.AttemptID, actorID, role)
	if err != nil {
		return nil, err
	}
	if !attempt.Status.IsGradable() {
		return nil, util.ErrAttemptNotGradable
	}

	maxMarks := answer.ExamQuestion.Marks
	if req.Marks < 0 || req.Marks > maxMarks {
		return nil, util.ErrMarksOutOfRange
	}

	grade := &model.Grade{
		AnswerID:     answer.ID,
		MarksAwarded: req.Marks,
		MaxMarks:     maxMarks,
		Feedback:     req.Feedback,
		Source:       model.GradeSourceTeacher,
		GradedBy:     &actorID,
	}
	if err := s.GradeRepo.Upsert(nil, grade); err != nil {
		return nil, err
	}

	s.Audit.Record(actorID, "grade_answer", "answer", answer.ID, map[string]any{
		"marks": req.Marks, "maxMarks": maxMarks,
	})
	return grade, nil
}

// BatchGrade applies many teacher grades in one call. Items that fail
// validation are reported individually; the rest are still applied. With
// AutoFinalize set the attempt is finalized when nothing remains ungraded.
func (s *GradingService) BatchGrade(actorID uint, role model.UserRole, attemptID uint, req BatchGradeRequest) (*BatchGradeResult, error) {
	attempt, _, err := s.attemptExam(attemptID, actorID, role)
	if err != nil {
		return nil, err
	}
	if !attempt.Status.IsGradable() {
		return nil, util.ErrAttemptNotGradable
	}

	out := &BatchGradeResult{}
	for _, item := range req.Items {
		if err := s.applyBatchItem(actorID, attempt.ID, item); err != nil {
			out.Errors = append(out.Errors, BatchGradeItemError{AnswerID: item.AnswerID, Error: err.Error()})
			continue
		}
		out.Applied++
	}

	s.Audit.Record(actorID, "batch_grade", "attempt", attempt.ID, map[string]any{
		"applied": out.Applied, "failed": len(out.Errors),
	})

	if !req.AutoFinalize {
		return out, nil
	}

	if _, err := s.AutoGrader.GradeMultipleChoice(nil, attempt.ID); err != nil {
		return out, err
	}
	ungraded, err := s.AnswerRepo.CountUngraded(nil, attempt.ID)
	if err != nil {
		return out, err
	}
	if ungraded > 0 {
		return out, nil
	}

	result, err := s.finalize(actorID, attempt)
	if err != nil {
		return out, err
	}
	out.Finalized = true
	out.Result = result
	return out, nil
}

func (s *GradingService) applyBatchItem(actorID, attemptID uint, item BatchGradeItem) error {
	answer, err := s.AnswerRepo.FindByID(nil, item.AnswerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAnswerNotFound
		}
		return err
	}
	if answer.AttemptID != attemptID {
		return fmt.Errorf("answer %d does not belong to attempt %d", item.AnswerID, attemptID)
	}
	maxMarks := answer.ExamQuestion.Marks
	if item.Marks < 0 || item.Marks > maxMarks {
		return util.ErrMarksOutOfRange
	}
	return s.GradeRepo.Upsert(nil, &model.Grade{
		AnswerID:     answer.ID,
		MarksAwarded: item.Marks,
		MaxMarks:     maxMarks,
		Feedback:     item.Feedback,
		Source:       model.GradeSourceTeacher,
		GradedBy:     &actorID,
	})
}

// AIGradeSession runs the automated grading pass over the attempt's
// ungraded free-text answers.
func (s *GradingService) AIGradeSession(ctx context.Context, actorID uint, role model.UserRole, attemptID uint) (*AIGradingStats, error) {
	if _, _, err := s.attemptExam(attemptID, actorID, role); err != nil {
		return nil, err
	}
	stats, err := s.Orchestrator.GradeAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	s.Audit.Record(actorID, "ai_grade_session", "attempt", attemptID, stats)
	return stats, nil
}

// ApproveGrade marks a grade reviewed, optionally overriding marks or
// feedback in the same call. Failed override validation leaves the grade
// untouched.
func (s *GradingService) ApproveGrade(actorID uint, role model.UserRole, gradeID uint, req ApproveGradeRequest) (*model.Grade, error) {
	grade, _, err := s.gradeForActor(gradeID, actorID, role)
	if err != nil {
		return nil, err
	}

	if req.Marks != nil {
		if *req.Marks < 0 || *req.Marks > grade.MaxMarks {
			return nil, util.ErrMarksOutOfRange
		}
		grade.MarksAwarded = *req.Marks
	}
	if req.Feedback != nil {
		grade.Feedback = *req.Feedback
	}

	now := time.Now()
	grade.IsReviewed = true
	grade.ReviewedBy = &actorID
	grade.ReviewedAt = &now
	grade.NeedsReview = false
	if err := s.GradeRepo.Update(nil, grade); err != nil {
		return nil, err
	}

	s.Audit.Record(actorID, "approve_grade", "grade", grade.ID, map[string]any{
		"marks": grade.MarksAwarded, "overridden": req.Marks != nil,
	})
	return grade, nil
}

// EditGrade overwrites marks and feedback on any existing grade. The
// grade becomes teacher-sourced regardless of who wrote it first.
func (s *GradingService) EditGrade(actorID uint, role model.UserRole, gradeID uint, req GradeAnswerRequest) (*model.Grade, error) {
	grade, _, err := s.gradeForActor(gradeID, actorID, role)
	if err != nil {
		return nil, err
	}
	if req.Marks < 0 || req.Marks > grade.MaxMarks {
		return nil, util.ErrMarksOutOfRange
	}

	grade.MarksAwarded = req.Marks
	grade.Feedback = req.Feedback
	grade.Source = model.GradeSourceTeacher
	grade.GradedBy = &actorID
	if err := s.GradeRepo.Update(nil, grade); err != nil {
		return nil, err
	}

	s.Audit.Record(actorID, "edit_grade", "grade", grade.ID, map[string]any{
		"marks": grade.MarksAwarded,
	})
	return grade, nil
}

func (s *GradingService) gradeForActor(gradeID, actorID uint, role model.UserRole) (*model.Grade, *model.Answer, error) {
	grade, err := s.GradeRepo.FindByID(gradeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrGradeNotFound
		}
		return nil, nil, err
	}
	answer, err := s.AnswerRepo.FindByID(nil, grade.AnswerID)
	if err != nil {
		return nil, nil, err
	}
	if _, _, err := s.attemptExam(answer.AttemptID, actorID, role); err != nil {
		return nil, nil, err
	}
	return grade, answer, nil
}

// FinalizeSession runs the deterministic grader for safety, verifies
// full grading and aggregates the result. The student notification is
// dispatched fire-and-forget.
func (s *GradingService) FinalizeSession(actorID uint, role model.UserRole, attemptID uint) (*model.Result, error) {
	attempt, _, err := s.attemptExam(attemptID, actorID, role)
	if err != nil {
		return nil, err
	}
	if !attempt.Status.IsGradable() {
		return nil, util.ErrAttemptNotGradable
	}
	return s.finalize(actorID, attempt)
}

func (s *GradingService) finalize(actorID uint, attempt *model.Attempt) (*model.Result, error) {
	if _, err := s.AutoGrader.GradeMultipleChoice(nil, attempt.ID); err != nil {
		return nil, err
	}
	ungraded, err := s.AnswerRepo.CountUngraded(nil, attempt.ID)
	if err != nil {
		return nil, err
	}
	if ungraded > 0 {
		return nil, fmt.Errorf("%w (%d remaining)", util.ErrNotFullyGraded, ungraded)
	}

	prev := attempt.Status
	if err := s.AttemptRepo.SetStatus(nil, attempt, model.AttemptGrading); err != nil {
		return nil, err
	}
	result, err := s.Aggregator.Aggregate(attempt.ID)
	if err != nil {
		// never leave the attempt parked mid-transition on failure
		if prev == model.AttemptSubmitted {
			if revertErr := s.AttemptRepo.SetStatus(nil, attempt, model.AttemptSubmitted); revertErr != nil {
				return nil, errors.Join(err, revertErr)
			}
		}
		return nil, err
	}

	greeting := "Your exam has been graded"
	if student, err := s.UserRepo.FindByID(attempt.StudentID); err == nil && student.Name != "" {
		greeting = student.Name + ", your exam has been graded"
	}
	s.Notifications.Notify(attempt.StudentID, "result_finalized",
		greeting,
		fmt.Sprintf("You scored %.1f of %.1f (%s).", result.ObtainedMarks, result.TotalMarks, result.Grade),
		fmt.Sprintf("/attempts/%d/result", attempt.ID))
	s.Audit.Record(actorID, "finalize_session", "attempt", attempt.ID, map[string]any{
		"obtained": result.ObtainedMarks, "total": result.TotalMarks, "grade": result.Grade,
	})
	return result, nil
}

// ReopenSession deletes the attempt's result and moves it back to
// GRADING so grades can be corrected and the attempt re-finalized. The
// only operation allowed to remove a result.
func (s *GradingService) ReopenSession(actorID uint, role model.UserRole, attemptID uint) error {
	attempt, _, err := s.attemptExam(attemptID, actorID, role)
	if err != nil {
		return err
	}
	if attempt.Status != model.AttemptGraded {
		return util.ErrAttemptNotGraded
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ResultRepo.Delete(tx, attempt.ID); err != nil {
			return err
		}
		return s.AttemptRepo.SetStatus(tx, attempt, model.AttemptGrading)
	})
	if err != nil {
		return err
	}

	s.Audit.Record(actorID, "reopen_session", "attempt", attempt.ID, nil)
	return nil
}
