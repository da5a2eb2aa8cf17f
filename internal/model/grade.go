package model

import "time"

type GradeSource string

const (
	GradeSourceSystem  GradeSource = "SYSTEM"
	GradeSourceAI      GradeSource = "AI"
	GradeSourceTeacher GradeSource = "TEACHER"
)

// Grade is the single shape written by all three graders; Source is the
// discriminant and the AI-only fields stay nil for SYSTEM/TEACHER rows.
// swagger:model Grade
type Grade struct {
	BaseModel
	AnswerID     uint        `gorm:"uniqueIndex;type:bigint unsigned" json:"answerId"`
	MarksAwarded float64     `gorm:"not null" json:"marksAwarded"`
	MaxMarks     float64     `gorm:"not null" json:"maxMarks"`
	Feedback     string      `gorm:"type:text" json:"feedback"`
	Source       GradeSource `gorm:"size:20;not null" json:"source"`

	// AI-only fields
	Confidence  *float64 `json:"confidence,omitempty"`
	NeedsReview bool     `gorm:"default:false" json:"needsReview"`

	// set only by an explicit human review action
	IsReviewed bool       `gorm:"default:false" json:"isReviewed"`
	ReviewedBy *uint      `gorm:"type:bigint unsigned" json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`

	// set for TEACHER-sourced grades
	GradedBy *uint `gorm:"type:bigint unsigned" json:"gradedBy,omitempty"`
}

func (Grade) TableName() string {
	return "grades"
}
