package service

import (
	"errors"
	"testing"
	"time"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/util"
)

func newAttemptService(env *testEnv) *AttemptService {
	return NewAttemptService(env.attemptRepo, env.answerRepo, env.examRepo)
}

func TestStartAttemptOncePerExam(t *testing.T) {
	env := newTestEnv(t)
	svc := newAttemptService(env)
	exam := env.createExam(t, teacherID, 5)

	attempt, err := svc.StartAttempt(studentID, exam.ID)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if attempt.Status != model.AttemptInProgress || attempt.StartedAt == nil {
		t.Errorf("attempt = %+v, want IN_PROGRESS with start time", attempt)
	}

	if _, err := svc.StartAttempt(studentID, exam.ID); !errors.Is(err, util.ErrAttemptAlreadyExists) {
		t.Errorf("second start err = %v, want ErrAttemptAlreadyExists", err)
	}
}

func TestStartAttemptUnpublishedExam(t *testing.T) {
	env := newTestEnv(t)
	svc := newAttemptService(env)
	exam := env.createExam(t, teacherID, 5)
	if err := env.db.Model(exam).Update("is_published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := svc.StartAttempt(studentID, exam.ID); !errors.Is(err, util.ErrExamNotFound) {
		t.Errorf("err = %v, want ErrExamNotFound", err)
	}
}

func TestSaveAnswerUpserts(t *testing.T) {
	env := newTestEnv(t)
	svc := newAttemptService(env)
	exam := env.createExam(t, teacherID, 5)
	eq := env.addFreeText(t, exam, model.QuestionShortAnswer, 5)

	attempt, err := svc.StartAttempt(studentID, exam.ID)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	if _, err := svc.SaveAnswer(studentID, attempt.ID, SaveAnswerRequest{ExamQuestionID: eq.ID, Text: "draft"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := svc.SaveAnswer(studentID, attempt.ID, SaveAnswerRequest{ExamQuestionID: eq.ID, Text: "final"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	answers, err := env.answerRepo.ListByAttempt(nil, attempt.ID)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("answers = %d, want one row per question", len(answers))
	}
	if answers[0].Text != "final" {
		t.Errorf("text = %q, want the replacement", answers[0].Text)
	}

	if _, err := svc.SaveAnswer(otherID, attempt.ID, SaveAnswerRequest{ExamQuestionID: eq.ID, Text: "x"}); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("foreign student err = %v, want ErrPermissionDenied", err)
	}
}

func TestSubmitAttempt(t *testing.T) {
	env := newTestEnv(t)
	svc := newAttemptService(env)
	exam := env.createExam(t, teacherID, 5)
	eq := env.addFreeText(t, exam, model.QuestionShortAnswer, 5)

	attempt, err := svc.StartAttempt(studentID, exam.ID)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	submitted, err := svc.SubmitAttempt(studentID, attempt.ID)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if submitted.Status != model.AttemptSubmitted || submitted.SubmittedAt == nil {
		t.Errorf("attempt = %+v, want SUBMITTED with timestamp", submitted)
	}

	if _, err := svc.SubmitAttempt(studentID, attempt.ID); !errors.Is(err, util.ErrAttemptSubmitted) {
		t.Errorf("double submit err = %v, want ErrAttemptSubmitted", err)
	}
	if _, err := svc.SaveAnswer(studentID, attempt.ID, SaveAnswerRequest{ExamQuestionID: eq.ID, Text: "late"}); !errors.Is(err, util.ErrAttemptNotInProgress) {
		t.Errorf("save after submit err = %v, want ErrAttemptNotInProgress", err)
	}
}

func TestProcessExpiredAttempts(t *testing.T) {
	env := newTestEnv(t)
	svc := newAttemptService(env)
	exam := env.createExam(t, teacherID, 5)
	if err := env.db.Model(exam).Update("duration_minutes", 30).Error; err != nil {
		t.Fatalf("set duration: %v", err)
	}

	started := time.Now().Add(-2 * time.Hour)
	stale := &model.Attempt{ExamID: exam.ID, StudentID: studentID, Status: model.AttemptInProgress, StartedAt: &started}
	if err := env.db.Create(stale).Error; err != nil {
		t.Fatalf("seed stale attempt: %v", err)
	}
	fresh := time.Now()
	active := &model.Attempt{ExamID: exam.ID, StudentID: otherID, Status: model.AttemptInProgress, StartedAt: &fresh}
	if err := env.db.Create(active).Error; err != nil {
		t.Fatalf("seed active attempt: %v", err)
	}

	if n := svc.ProcessExpiredAttempts(); n != 1 {
		t.Fatalf("force-submitted = %d, want 1", n)
	}
	if got := env.attemptStatus(t, stale.ID); got != model.AttemptSubmitted {
		t.Errorf("stale status = %s, want SUBMITTED", got)
	}
	if got := env.attemptStatus(t, active.ID); got != model.AttemptInProgress {
		t.Errorf("active status = %s, want IN_PROGRESS", got)
	}
}
