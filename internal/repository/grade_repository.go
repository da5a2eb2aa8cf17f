package repository

import (
	"exam_center_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GradeRepository struct {
	DB *gorm.DB
}

func NewGradeRepository(db *gorm.DB) *GradeRepository {
	return &GradeRepository{DB: db}
}

func (r *GradeRepository) db(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

func (r *GradeRepository) FindByID(id uint) (*model.Grade, error) {
	var g model.Grade
	err := r.DB.First(&g, id).Error
	return &g, err
}

func (r *GradeRepository) FindByAnswer(tx *gorm.DB, answerID uint) (*model.Grade, error) {
	var g model.Grade
	err := r.db(tx).Where("answer_id = ?", answerID).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Upsert writes a grade keyed on the unique answer_id. Re-grading replaces
// marks, feedback, source and the AI fields; the review columns are left
// untouched because only an explicit human review action may set them.
func (r *GradeRepository) Upsert(tx *gorm.DB, grade *model.Grade) error {
	db := r.db(tx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "answer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"marks_awarded", "max_marks", "feedback", "source",
			"confidence", "needs_review", "graded_by", "updated_at",
		}),
	}).Create(grade).Error
	if err != nil {
		return err
	}
	// On the update path the driver reports the conflicting row's values
	// nowhere, so the struct still carries a zero key. Read the row back.
	var saved model.Grade
	if err := db.Where("answer_id = ?", grade.AnswerID).First(&saved).Error; err != nil {
		return err
	}
	*grade = saved
	return nil
}

func (r *GradeRepository) Update(tx *gorm.DB, grade *model.Grade) error {
	return r.db(tx).Save(grade).Error
}

func (r *GradeRepository) ListByAttempt(tx *gorm.DB, attemptID uint) ([]model.Grade, error) {
	var grades []model.Grade
	err := r.db(tx).
		Joins("JOIN answers ON answers.id = grades.answer_id").
		Where("answers.attempt_id = ?", attemptID).
		Find(&grades).Error
	return grades, err
}
