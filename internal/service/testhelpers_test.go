package service

import (
	"context"
	"fmt"
	"testing"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/repository"
	"exam_center_backend/pkg/database"
	"exam_center_backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Log = zap.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// stubGradingClient lets tests script the external scoring service.
type stubGradingClient struct {
	calls int
	score func(req ScoreRequest) (*ScoreResponse, error)
}

func (s *stubGradingClient) Score(_ context.Context, req ScoreRequest) (*ScoreResponse, error) {
	s.calls++
	if s.score == nil {
		return &ScoreResponse{MarksAwarded: req.MaxMarks, Feedback: "ok", Confidence: 0.95}, nil
	}
	return s.score(req)
}

type testEnv struct {
	db           *gorm.DB
	client       *stubGradingClient
	attemptRepo  *repository.AttemptRepository
	answerRepo   *repository.AnswerRepository
	gradeRepo    *repository.GradeRepository
	resultRepo   *repository.ResultRepository
	examRepo     *repository.ExamRepository
	autoGrader   *AutoGradeService
	aiGrader     *AIAnswerGrader
	orchestrator *AIGradingService
	aggregator   *ResultService
	grading      *GradingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	env := &testEnv{
		db:          db,
		client:      &stubGradingClient{},
		attemptRepo: repository.NewAttemptRepository(db),
		answerRepo:  repository.NewAnswerRepository(db),
		gradeRepo:   repository.NewGradeRepository(db),
		resultRepo:  repository.NewResultRepository(db),
		examRepo:    repository.NewExamRepository(db),
	}
	env.autoGrader = NewAutoGradeService(db, env.answerRepo, env.gradeRepo)
	env.aiGrader = NewAIAnswerGrader(env.client, env.gradeRepo, 0.7, 6000)
	env.orchestrator = NewAIGradingService(env.attemptRepo, env.answerRepo, env.autoGrader, env.aiGrader)
	env.aggregator = NewResultService(db, env.attemptRepo, env.examRepo, env.resultRepo)
	env.grading = NewGradingService(
		db,
		env.attemptRepo,
		env.answerRepo,
		env.gradeRepo,
		env.resultRepo,
		env.examRepo,
		repository.NewUserRepository(db),
		env.autoGrader,
		env.orchestrator,
		env.aggregator,
		NewNotificationService(repository.NewNotificationRepository(db), nil),
		NewAuditService(repository.NewAuditRepository(db)),
	)
	return env
}

func (e *testEnv) createExam(t *testing.T, creatorID uint, passingMarks float64) *model.Exam {
	t.Helper()
	exam := &model.Exam{
		CreatorID:    creatorID,
		Title:        "Midterm",
		SubjectName:  "Physics",
		Difficulty:   "medium",
		PassingMarks: passingMarks,
		IsPublished:  true,
	}
	if err := e.db.Create(exam).Error; err != nil {
		t.Fatalf("create exam: %v", err)
	}
	return exam
}

// addMCQ attaches a multiple-choice question with one correct and one
// wrong option. Returns the exam question and both options.
func (e *testEnv) addMCQ(t *testing.T, exam *model.Exam, marks float64) (*model.ExamQuestion, *model.QuestionOption, *model.QuestionOption) {
	t.Helper()
	q := &model.Question{
		QuestionType: model.QuestionMultipleChoice,
		Title:        "Pick the right one",
		Content:      "Which option is correct?",
	}
	if err := e.db.Create(q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	correct := &model.QuestionOption{QuestionID: q.ID, Text: "Right", IsCorrect: true, Order: 1}
	wrong := &model.QuestionOption{QuestionID: q.ID, Text: "Wrong", IsCorrect: false, Order: 2}
	for _, opt := range []*model.QuestionOption{correct, wrong} {
		if err := e.db.Create(opt).Error; err != nil {
			t.Fatalf("create option: %v", err)
		}
	}
	eq := &model.ExamQuestion{ExamID: exam.ID, QuestionID: q.ID, Marks: marks}
	if err := e.db.Create(eq).Error; err != nil {
		t.Fatalf("create exam question: %v", err)
	}
	return eq, correct, wrong
}

func (e *testEnv) addFreeText(t *testing.T, exam *model.Exam, qtype model.QuestionType, marks float64) *model.ExamQuestion {
	t.Helper()
	q := &model.Question{
		QuestionType: qtype,
		Title:        "Explain the concept",
		Content:      "Explain in your own words.",
		ModelAnswer:  "A thorough explanation.",
	}
	if err := e.db.Create(q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	eq := &model.ExamQuestion{ExamID: exam.ID, QuestionID: q.ID, Marks: marks}
	if err := e.db.Create(eq).Error; err != nil {
		t.Fatalf("create exam question: %v", err)
	}
	return eq
}

func (e *testEnv) createAttempt(t *testing.T, exam *model.Exam, studentID uint, status model.AttemptStatus) *model.Attempt {
	t.Helper()
	attempt := &model.Attempt{ExamID: exam.ID, StudentID: studentID, Status: status}
	if err := e.db.Create(attempt).Error; err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	return attempt
}

func (e *testEnv) addAnswer(t *testing.T, attempt *model.Attempt, eq *model.ExamQuestion, text string, selected *uint) *model.Answer {
	t.Helper()
	answer := &model.Answer{
		AttemptID:        attempt.ID,
		ExamQuestionID:   eq.ID,
		Text:             text,
		SelectedOptionID: selected,
	}
	if err := e.db.Create(answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}
	return answer
}

func (e *testEnv) attemptStatus(t *testing.T, id uint) model.AttemptStatus {
	t.Helper()
	var attempt model.Attempt
	if err := e.db.First(&attempt, id).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	return attempt.Status
}

func (e *testEnv) gradeFor(t *testing.T, answerID uint) *model.Grade {
	t.Helper()
	grade, err := e.gradeRepo.FindByAnswer(nil, answerID)
	if err != nil {
		t.Fatalf("load grade for answer %d: %v", answerID, err)
	}
	return grade
}
