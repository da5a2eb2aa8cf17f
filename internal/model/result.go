package model

import "time"

// swagger:model Result
type Result struct {
	BaseModel
	AttemptID     uint       `gorm:"uniqueIndex;type:bigint unsigned" json:"attemptId"`
	ObtainedMarks float64    `gorm:"not null" json:"obtainedMarks"`
	TotalMarks    float64    `gorm:"not null" json:"totalMarks"`
	Percentage    float64    `gorm:"not null" json:"percentage"`
	Grade         string     `gorm:"size:5;not null" json:"grade"`
	IsPassed      bool       `gorm:"default:false" json:"isPassed"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
}

func (Result) TableName() string {
	return "results"
}

// GradeScale is one percentage band of the letter-grade table.
type GradeScale struct {
	BaseModel
	Letter     string  `gorm:"size:5;not null" json:"letter"`
	MinPercent float64 `gorm:"not null" json:"minPercent"`
	MaxPercent float64 `gorm:"not null" json:"maxPercent"`
	Order      int     `gorm:"default:0" json:"order"`
}

func (GradeScale) TableName() string {
	return "grade_scales"
}
