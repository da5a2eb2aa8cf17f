package database

import (
	"exam_center_backend/internal/config"
	"exam_center_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

// ShouldMigrate reports whether startup runs AutoMigrate: always outside
// release mode, in release only when forced from the command line.
func ShouldMigrate(cfg *config.Config) bool {
	return cfg.Server.Mode != "release" || cfg.ForceMigrate
}

// Migrate creates/updates the schema and seeds the default grade scale.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Exam{},
		&model.Question{},
		&model.QuestionOption{},
		&model.ExamQuestion{},
		&model.Attempt{},
		&model.Answer{},
		&model.Grade{},
		&model.Result{},
		&model.GradeScale{},
		&model.Notification{},
		&model.AuditLog{},
	)
	if err != nil {
		return err
	}
	return seedGradeScale(db)
}

// seedGradeScale inserts the default letter bands once; an operator can
// edit the table afterwards without the seed overwriting it.
func seedGradeScale(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.GradeScale{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.GradeScale{
		{Letter: "A+", MinPercent: 90, MaxPercent: 100, Order: 1},
		{Letter: "A", MinPercent: 80, MaxPercent: 89, Order: 2},
		{Letter: "B", MinPercent: 70, MaxPercent: 79, Order: 3},
		{Letter: "C", MinPercent: 60, MaxPercent: 69, Order: 4},
		{Letter: "D", MinPercent: 50, MaxPercent: 59, Order: 5},
		{Letter: "F", MinPercent: 0, MaxPercent: 49, Order: 6},
	}
	for _, band := range defaults {
		if err := db.Create(&band).Error; err != nil {
			return err
		}
	}
	return nil
}
