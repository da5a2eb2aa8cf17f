package repository

import (
	"exam_center_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) db(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

func (r *ExamRepository) FindByID(tx *gorm.DB, id uint) (*model.Exam, error) {
	var e model.Exam
	err := r.db(tx).First(&e, id).Error
	return &e, err
}

func (r *ExamRepository) ListQuestions(tx *gorm.DB, examID uint) ([]model.ExamQuestion, error) {
	var eqs []model.ExamQuestion
	err := r.db(tx).Preload("Question").Preload("Question.Options").
		Where("exam_id = ?", examID).
		Order("`order` asc, id asc").
		Find(&eqs).Error
	return eqs, err
}

func (r *ExamRepository) CountQuestions(examID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamQuestion{}).Where("exam_id = ?", examID).Count(&count).Error
	return count, err
}
