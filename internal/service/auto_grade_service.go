package service

import (
	"strings"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"

	"gorm.io/gorm"
)

// AutoGradeService grades multiple-choice answers by set membership of
// the selected option in the question's correct-option set.
type AutoGradeService struct {
	DB         *gorm.DB
	AnswerRepo *repository.AnswerRepository
	GradeRepo  *repository.GradeRepository
}

func NewAutoGradeService(db *gorm.DB, answerRepo *repository.AnswerRepository, gradeRepo *repository.GradeRepository) *AutoGradeService {
	return &AutoGradeService{DB: db, AnswerRepo: answerRepo, GradeRepo: gradeRepo}
}

// GradeMultipleChoice grades every still-ungraded multiple-choice answer
// of the attempt as one atomic batch. Answers that already carry a grade
// are skipped so re-running never double counts. When tx is nil the batch
// runs in its own transaction.
func (s *AutoGradeService) GradeMultipleChoice(tx *gorm.DB, attemptID uint) (int, error) {
	if tx == nil {
		graded := 0
		err := s.DB.Transaction(func(inner *gorm.DB) error {
			var err error
			graded, err = s.gradeBatch(inner, attemptID)
			return err
		})
		return graded, err
	}
	return s.gradeBatch(tx, attemptID)
}

func (s *AutoGradeService) gradeBatch(tx *gorm.DB, attemptID uint) (int, error) {
	answers, err := s.AnswerRepo.ListByAttempt(tx, attemptID)
	if err != nil {
		return 0, err
	}

	graded := 0
	for i := range answers {
		answer := &answers[i]
		if answer.ExamQuestion == nil || answer.ExamQuestion.Question == nil {
			continue
		}
		if answer.ExamQuestion.Question.QuestionType != model.QuestionMultipleChoice {
			continue
		}
		if answer.Grade != nil {
			continue
		}

		grade := s.scoreAnswer(answer)
		if err := s.GradeRepo.Upsert(tx, grade); err != nil {
			return graded, err
		}
		graded++
	}
	return graded, nil
}

// scoreAnswer is the deterministic scoring rule: full marks when the
// selected option is in the correct set, zero otherwise.
func (s *AutoGradeService) scoreAnswer(answer *model.Answer) *model.Grade {
	eq := answer.ExamQuestion
	question := eq.Question

	correctSet := make(map[uint]bool)
	var correctTexts []string
	for _, opt := range question.Options {
		if opt.IsCorrect {
			correctSet[opt.ID] = true
			correctTexts = append(correctTexts, opt.Text)
		}
	}

	correct := answer.SelectedOptionID != nil && correctSet[*answer.SelectedOptionID]

	marks := 0.0
	feedback := "Incorrect. Correct: " + strings.Join(correctTexts, ", ")
	if correct {
		marks = eq.Marks
		feedback = "Correct"
	}

	return &model.Grade{
		AnswerID:     answer.ID,
		MarksAwarded: marks,
		MaxMarks:     eq.Marks,
		Feedback:     feedback,
		Source:       model.GradeSourceSystem,
	}
}
