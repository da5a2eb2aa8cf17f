package model

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionLongAnswer     QuestionType = "long_answer"
)

// swagger:model Question
type Question struct {
	BaseModel
	QuestionType QuestionType     `gorm:"size:50;not null" json:"questionType"`
	Title        string           `gorm:"size:255;not null" json:"title"`
	Content      string           `gorm:"type:text" json:"content"`
	ModelAnswer  string           `gorm:"type:text" json:"modelAnswer"`
	Options      []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

type QuestionOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
	Order      int    `gorm:"default:0" json:"order"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}
