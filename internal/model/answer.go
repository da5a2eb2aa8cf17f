package model

// swagger:model Answer
type Answer struct {
	BaseModel
	AttemptID        uint            `gorm:"uniqueIndex:idx_attempt_question;type:bigint unsigned" json:"attemptId"`
	ExamQuestionID   uint            `gorm:"uniqueIndex:idx_attempt_question;type:bigint unsigned" json:"examQuestionId"`
	ExamQuestion     *ExamQuestion   `gorm:"foreignKey:ExamQuestionID" json:"examQuestion,omitempty"`
	Text             string          `gorm:"type:text" json:"text"`
	SelectedOptionID *uint           `gorm:"type:bigint unsigned" json:"selectedOptionId,omitempty"`
	SelectedOption   *QuestionOption `gorm:"foreignKey:SelectedOptionID" json:"selectedOption,omitempty"`
	Grade            *Grade          `gorm:"foreignKey:AnswerID" json:"grade,omitempty"`
}

func (Answer) TableName() string {
	return "answers"
}
