package model

import "time"

// swagger:model Exam
type Exam struct {
	BaseModel
	CreatorID       uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
	Creator         *User      `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	SubjectName     string     `gorm:"size:100" json:"subjectName"`
	Difficulty      string     `gorm:"size:20" json:"difficulty"`
	DurationMinutes int        `gorm:"default:0" json:"durationMinutes"`
	TotalMarks      float64    `gorm:"default:0" json:"totalMarks"`
	PassingMarks    float64    `gorm:"default:0" json:"passingMarks"`
	IsPublished     bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// ExamQuestion binds a reusable question into one exam with
// per-instance marks and ordering.
type ExamQuestion struct {
	BaseModel
	ExamID     uint      `gorm:"index;type:bigint unsigned" json:"examId"`
	QuestionID uint      `gorm:"index;type:bigint unsigned" json:"questionId"`
	Question   *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	Marks      float64   `gorm:"default:0" json:"marks"`
	Order      int       `gorm:"default:0" json:"order"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
