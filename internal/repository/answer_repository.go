package repository

import (
	"exam_center_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

func (r *AnswerRepository) db(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

func (r *AnswerRepository) FindByID(tx *gorm.DB, id uint) (*model.Answer, error) {
	var a model.Answer
	err := r.db(tx).
		Preload("Grade").
		Preload("ExamQuestion").
		Preload("ExamQuestion.Question").
		Preload("ExamQuestion.Question.Options").
		First(&a, id).Error
	return &a, err
}

func (r *AnswerRepository) ListByAttempt(tx *gorm.DB, attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db(tx).
		Preload("Grade").
		Preload("ExamQuestion").
		Preload("ExamQuestion.Question").
		Preload("ExamQuestion.Question.Options").
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error
	return answers, err
}

// ListUngradedFreeText returns the attempt's short/long answers that have
// no grade row yet, ordered by question position.
func (r *AnswerRepository) ListUngradedFreeText(attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.
		Preload("ExamQuestion").
		Preload("ExamQuestion.Question").
		Joins("JOIN exam_questions ON exam_questions.id = answers.exam_question_id").
		Joins("JOIN questions ON questions.id = exam_questions.question_id").
		Joins("LEFT JOIN grades ON grades.answer_id = answers.id AND grades.deleted_at IS NULL").
		Where("answers.attempt_id = ?", attemptID).
		Where("questions.question_type <> ?", model.QuestionMultipleChoice).
		Where("grades.id IS NULL").
		Order("exam_questions.`order` asc, answers.id asc").
		Find(&answers).Error
	return answers, err
}

// CountUngraded counts the attempt's answers without a grade row.
func (r *AnswerRepository) CountUngraded(tx *gorm.DB, attemptID uint) (int64, error) {
	var count int64
	err := r.db(tx).Model(&model.Answer{}).
		Joins("LEFT JOIN grades ON grades.answer_id = answers.id AND grades.deleted_at IS NULL").
		Where("answers.attempt_id = ?", attemptID).
		Where("grades.id IS NULL").
		Count(&count).Error
	return count, err
}

// Upsert creates the answer row for (attempt, exam question) or replaces
// the response fields if the student saved this question before.
func (r *AnswerRepository) Upsert(answer *model.Answer) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "exam_question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "selected_option_id", "updated_at"}),
	}).Create(answer).Error
}
