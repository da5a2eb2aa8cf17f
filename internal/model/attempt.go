package model

import "time"

type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "NOT_STARTED"
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
	AttemptGrading    AttemptStatus = "GRADING"
	AttemptGraded     AttemptStatus = "GRADED"
)

// attemptTransitions is the authoritative state table. GRADED is terminal
// except for the reopen path back to GRADING.
var attemptTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptNotStarted: {AttemptInProgress},
	AttemptInProgress: {AttemptSubmitted},
	AttemptSubmitted:  {AttemptGrading},
	AttemptGrading:    {AttemptSubmitted, AttemptGraded},
	AttemptGraded:     {AttemptGrading},
}

func (s AttemptStatus) CanTransitionTo(next AttemptStatus) bool {
	for _, allowed := range attemptTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AttemptStatus) IsGradable() bool {
	return s == AttemptSubmitted || s == AttemptGrading
}

// swagger:model Attempt
type Attempt struct {
	BaseModel
	ExamID      uint          `gorm:"index;type:bigint unsigned" json:"examId"`
	Exam        *Exam         `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
	StudentID   uint          `gorm:"index;type:bigint unsigned" json:"studentId"`
	Student     *User         `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Status      AttemptStatus `gorm:"size:20;default:'NOT_STARTED'" json:"status"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty"`
	Answers     []Answer      `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
	Result      *Result       `gorm:"foreignKey:AttemptID" json:"result,omitempty"`
}

func (Attempt) TableName() string {
	return "attempts"
}
