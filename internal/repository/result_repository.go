package repository

import (
	"errors"

	"exam_center_backend/internal/model"

	"gorm.io/gorm"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) db(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

func (r *ResultRepository) FindByAttempt(tx *gorm.DB, attemptID uint) (*model.Result, error) {
	var res model.Result
	err := r.db(tx).Where("attempt_id = ?", attemptID).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Upsert recomputes the single result row for an attempt. The numeric
// fields are replaced; an existing publication timestamp survives the
// recomputation because publishing is a separate explicit act.
func (r *ResultRepository) Upsert(tx *gorm.DB, result *model.Result) error {
	db := r.db(tx)

	existing, err := r.FindByAttempt(tx, result.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Create(result).Error
		}
		return err
	}

	existing.ObtainedMarks = result.ObtainedMarks
	existing.TotalMarks = result.TotalMarks
	existing.Percentage = result.Percentage
	existing.Grade = result.Grade
	existing.IsPassed = result.IsPassed
	if err := db.Save(existing).Error; err != nil {
		return err
	}
	*result = *existing
	return nil
}

// Delete removes the attempt's result row permanently so a later finalize
// can recreate it under the same unique attempt_id key.
func (r *ResultRepository) Delete(tx *gorm.DB, attemptID uint) error {
	return r.db(tx).Unscoped().Where("attempt_id = ?", attemptID).Delete(&model.Result{}).Error
}
