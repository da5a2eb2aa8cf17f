package service

import (
	"database/sql"
	"fmt"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/pkg/logger"
	"exam_center_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResultService aggregates an attempt's grades into its single Result row.
type ResultService struct {
	DB          *gorm.DB
	AttemptRepo *repository.AttemptRepository
	ExamRepo    *repository.ExamRepository
	ResultRepo  *repository.ResultRepository
}

func NewResultService(db *gorm.DB, attemptRepo *repository.AttemptRepository, examRepo *repository.ExamRepository, resultRepo *repository.ResultRepository) *ResultService {
	return &ResultService{
		DB:          db,
		AttemptRepo: attemptRepo,
		ExamRepo:    examRepo,
		ResultRepo:  resultRepo,
	}
}

// loadScale reads the configured grade bands. Falls back to the built-in
// scale when the table is empty or unreadable so finalization never blocks
// on scale configuration.
func (s *ResultService) loadScale(tx *gorm.DB) *GradingScale {
	var rows []model.GradeScale
	if err := tx.Order("`order` asc").Find(&rows).Error; err != nil {
		logger.Log.Warn("failed to load grade scale, using default", zap.Error(err))
		return DefaultGradingScale()
	}
	return GradingScaleFromRows(rows)
}

// Aggregate recomputes the attempt's result from its persisted grades and
// moves the attempt to GRADED. The whole recomputation runs in a single
// serializable transaction so a concurrent override or reopen cannot
// interleave with the sums.
func (s *ResultService) Aggregate(attemptID uint) (*model.Result, error) {
	var result *model.Result
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		attempt, err := s.AttemptRepo.FindWithDetails(tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Exam == nil {
			return fmt.Errorf("attempt %d has no exam loaded", attemptID)
		}

		// The exam's declared total is the denominator. Summing question
		// marks is only a fallback for exams saved without one.
		total := attempt.Exam.TotalMarks
		if total == 0 {
			questions, err := s.ExamRepo.ListQuestions(tx, attempt.ExamID)
			if err != nil {
				return err
			}
			for _, eq := range questions {
				total += eq.Marks
			}
		}

		var obtained float64
		for _, a := range attempt.Answers {
			if a.Grade != nil {
				obtained += a.Grade.MarksAwarded
			}
		}

		percentage := 0.0
		if total > 0 {
			percentage = obtained / total * 100
		}

		scale := s.loadScale(tx)
		result = &model.Result{
			AttemptID:     attempt.ID,
			ObtainedMarks: obtained,
			TotalMarks:    total,
			Percentage:    percentage,
			Grade:         scale.LetterFor(percentage),
			IsPassed:      obtained >= attempt.Exam.PassingMarks,
		}
		if err := s.ResultRepo.Upsert(tx, result); err != nil {
			return err
		}
		return s.AttemptRepo.SetStatus(tx, attempt, model.AttemptGraded)
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	monitoring.AttemptsFinalizedTotal.Inc()
	return result, nil
}
