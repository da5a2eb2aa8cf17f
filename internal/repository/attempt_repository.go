package repository

import (
	"fmt"
	"time"

	"exam_center_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) db(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

func (r *AttemptRepository) Create(attempt *model.Attempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(tx *gorm.DB, id uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.db(tx).First(&a, id).Error
	return &a, err
}

// FindWithDetails loads the attempt together with its exam, answers,
// question instances and any existing grades.
func (r *AttemptRepository) FindWithDetails(tx *gorm.DB, id uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.db(tx).
		Preload("Exam").
		Preload("Answers").
		Preload("Answers.Grade").
		Preload("Answers.ExamQuestion").
		Preload("Answers.ExamQuestion.Question").
		Preload("Answers.ExamQuestion.Question.Options").
		First(&a, id).Error
	return &a, err
}

func (r *AttemptRepository) FindByStudentAndExam(studentID, examID uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.Where("student_id = ? AND exam_id = ?", studentID, examID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SetStatus is the single authoritative status writer. Every operation,
// including its error paths, resolves attempt status through here so the
// transition table in the model is enforced everywhere. Setting the
// current status again is a no-op.
func (r *AttemptRepository) SetStatus(tx *gorm.DB, attempt *model.Attempt, to model.AttemptStatus) error {
	if attempt.Status == to {
		return nil
	}
	if !attempt.Status.CanTransitionTo(to) {
		return fmt.Errorf("invalid attempt status transition %s -> %s", attempt.Status, to)
	}
	if err := r.db(tx).Model(&model.Attempt{}).Where("id = ?", attempt.ID).
		Update("status", to).Error; err != nil {
		return err
	}
	attempt.Status = to
	return nil
}

func (r *AttemptRepository) Update(tx *gorm.DB, attempt *model.Attempt) error {
	return r.db(tx).Save(attempt).Error
}

// ListExpiredInProgress returns in-progress attempts whose exam duration
// window elapsed before the cutoff. Used by the background auto-submit task.
func (r *AttemptRepository) ListExpiredInProgress(cutoff time.Time) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.Preload("Exam").
		Where("status = ?", model.AttemptInProgress).
		Where("started_at IS NOT NULL").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	expired := attempts[:0]
	for _, a := range attempts {
		if a.Exam == nil || a.Exam.DurationMinutes <= 0 {
			continue
		}
		deadline := a.StartedAt.Add(time.Duration(a.Exam.DurationMinutes) * time.Minute)
		if !deadline.After(cutoff) {
			expired = append(expired, a)
		}
	}
	return expired, nil
}
