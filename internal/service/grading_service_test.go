package service

import (
	"errors"
	"testing"

	"exam_center_backend/internal/model"
	"exam_center_backend/internal/util"
)

const (
	teacherID = 1
	studentID = 2
	otherID   = 9
)

func TestGradeAnswerByTeacher(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq := env.addFreeText(t, exam, model.QuestionShortAnswer, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	answer := env.addAnswer(t, attempt, eq, "prose", nil)

	grade, err := env.grading.GradeAnswer(teacherID, model.Teacher, answer.ID, GradeAnswerRequest{Marks: 7, Feedback: "good"})
	if err != nil {
		t.Fatalf("GradeAnswer: %v", err)
	}
	if grade.MarksAwarded != 7 || grade.Source != model.GradeSourceTeacher {
		t.Errorf("grade = %v %s, want 7 TEACHER", grade.MarksAwarded, grade.Source)
	}
	if grade.GradedBy == nil || *grade.GradedBy != teacherID {
		t.Errorf("gradedBy = %v, want teacher", grade.GradedBy)
	}
}

func TestGradeAnswerValidation(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq := env.addFreeText(t, exam, model.QuestionShortAnswer, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	answer := env.addAnswer(t, attempt, eq, "prose", nil)

	if _, err := env.grading.GradeAnswer(teacherID, model.Teacher, answer.ID, GradeAnswerRequest{Marks: 11}); !errors.Is(err, util.ErrMarksOutOfRange) {
		t.Errorf("marks over max: err = %v, want ErrMarksOutOfRange", err)
	}
	if _, err := env.grading.GradeAnswer(otherID, model.Teacher, answer.ID, GradeAnswerRequest{Marks: 5}); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("foreign teacher: err = %v, want ErrPermissionDenied", err)
	}
	// admins may grade any exam
	if _, err := env.grading.GradeAnswer(otherID, model.Admin, answer.ID, GradeAnswerRequest{Marks: 5}); err != nil {
		t.Errorf("admin: err = %v, want nil", err)
	}
}

func TestGradeAnswerRejectsGradedAttempt(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq := env.addFreeText(t, exam, model.QuestionShortAnswer, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptGraded)
	answer := env.addAnswer(t, attempt, eq, "prose", nil)

	// a finalized attempt must go through reopen before regrading
	if _, err := env.grading.GradeAnswer(teacherID, model.Teacher, answer.ID, GradeAnswerRequest{Marks: 5}); !errors.Is(err, util.ErrAttemptNotGradable) {
		t.Errorf("graded attempt: err = %v, want ErrAttemptNotGradable", err)
	}
	if _, err := env.gradeRepo.FindByAnswer(nil, answer.ID); err == nil {
		t.Error("grade row was written into a finalized attempt")
	}
}

func TestGradeAnswerRegradeKeepsID(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq := env.addFreeText(t, exam, model.QuestionShortAnswer, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	answer := env.addAnswer(t, attempt, eq, "prose", nil)

	first, err := env.grading.GradeAnswer(teacherID, model.Teacher, answer.ID, GradeAnswerRequest{Marks: 4})
	if err != nil {
		t.Fatalf("first GradeAnswer: %v", err)
	}
	second, err := env.grading.GradeAnswer(teacherID, model.Teacher, answer.ID, GradeAnswerRequest{Marks: 8})
	if err != nil {
		t.Fatalf("second GradeAnswer: %v", err)
	}
	if second.ID == 0 || second.ID != first.ID {
		t.Errorf("regrade returned id %d, want the existing row's id %d", second.ID, first.ID)
	}
	if second.MarksAwarded != 8 {
		t.Errorf("marks = %v, want 8", second.MarksAwarded)
	}
}

func TestFinalizeFailsWithUngradedAnswers(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq := env.addFreeText(t, exam, model.QuestionShortAnswer, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	env.addAnswer(t, attempt, eq, "prose", nil)

	_, err := env.grading.FinalizeSession(teacherID, model.Teacher, attempt.ID)
	if !errors.Is(err, util.ErrNotFullyGraded) {
		t.Fatalf("err = %v, want ErrNotFullyGraded", err)
	}
	if _, err := env.resultRepo.FindByAttempt(nil, attempt.ID); err == nil {
		t.Error("no result row should exist after a failed finalize")
	}
	if got := env.attemptStatus(t, attempt.ID); got != model.AttemptSubmitted {
		t.Errorf("status = %s, want SUBMITTED", got)
	}
}

func TestFinalizeGradesMultipleChoiceAndAggregates(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq, correct, _ := env.addMCQ(t, exam, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	env.addAnswer(t, attempt, eq, "", &correct.ID)

	result, err := env.grading.FinalizeSession(teacherID, model.Teacher, attempt.ID)
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	if result.ObtainedMarks != 10 || !result.IsPassed {
		t.Errorf("result = %+v, want full marks and passed", result)
	}
	if got := env.attemptStatus(t, attempt.ID); got != model.AttemptGraded {
		t.Errorf("status = %s, want GRADED", got)
	}
}

func TestReopenThenFinalizeRecreatesResult(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq, correct, _ := env.addMCQ(t, exam, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	env.addAnswer(t, attempt, eq, "", &correct.ID)

	if _, err := env.grading.FinalizeSession(teacherID, model.Teacher, attempt.ID); err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	if err := env.grading.ReopenSession(teacherID, model.Teacher, attempt.ID); err != nil {
		t.Fatalf("ReopenSession: %v", err)
	}
	if got := env.attemptStatus(t, attempt.ID); got != model.AttemptGrading {
		t.Errorf("status after reopen = %s, want GRADING", got)
	}
	if _, err := env.resultRepo.FindByAttempt(nil, attempt.ID); err == nil {
		t.Error("result should be deleted on reopen")
	}

	// a second reopen must fail: only GRADED attempts can be reopened
	if err := env.grading.ReopenSession(teacherID, model.Teacher, attempt.ID); !errors.Is(err, util.ErrAttemptNotGraded) {
		t.Errorf("second reopen err = %v, want ErrAttemptNotGraded", err)
	}

	result, err := env.grading.FinalizeSession(teacherID, model.Teacher, attempt.ID)
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if result.ObtainedMarks != 10 {
		t.Errorf("recreated result marks = %v, want 10", result.ObtainedMarks)
	}

	var count int64
	if err := env.db.Model(&model.Result{}).Where("attempt_id = ?", attempt.ID).Count(&count).Error; err != nil {
		t.Fatalf("count results: %v", err)
	}
	if count != 1 {
		t.Errorf("result rows = %d, want one per attempt", count)
	}
}

func TestApproveGradeOverrideValidation(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq := env.addFreeText(t, exam, model.QuestionShortAnswer, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	answer := env.addAnswer(t, attempt, eq, "prose", nil)

	confidence := 0.5
	seed := &model.Grade{
		AnswerID: answer.ID, MarksAwarded: 6, MaxMarks: 10,
		Feedback: "machine feedback", Source: model.GradeSourceAI,
		Confidence: &confidence, NeedsReview: true,
	}
	if err := env.gradeRepo.Upsert(nil, seed); err != nil {
		t.Fatalf("seed grade: %v", err)
	}

	over := 12.0
	if _, err := env.grading.ApproveGrade(teacherID, model.Teacher, seed.ID, ApproveGradeRequest{Marks: &over}); !errors.Is(err, util.ErrMarksOutOfRange) {
		t.Fatalf("err = %v, want ErrMarksOutOfRange", err)
	}
	untouched := env.gradeFor(t, answer.ID)
	if untouched.MarksAwarded != 6 || untouched.IsReviewed {
		t.Errorf("failed override mutated the grade: %+v", untouched)
	}

	ok := 8.0
	feedback := "human verdict"
	grade, err := env.grading.ApproveGrade(teacherID, model.Teacher, seed.ID, ApproveGradeRequest{Marks: &ok, Feedback: &feedback})
	if err != nil {
		t.Fatalf("ApproveGrade: %v", err)
	}
	if grade.MarksAwarded != 8 || grade.Feedback != "human verdict" {
		t.Errorf("grade = %v %q, want overridden values", grade.MarksAwarded, grade.Feedback)
	}
	if !grade.IsReviewed || grade.ReviewedBy == nil || *grade.ReviewedBy != teacherID || grade.ReviewedAt == nil {
		t.Errorf("review stamps missing: %+v", grade)
	}
	if grade.NeedsReview {
		t.Error("needsReview should clear after an explicit review")
	}
}

func TestEditGradeBecomesTeacherSourced(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq, correct, _ := env.addMCQ(t, exam, 4)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	answer := env.addAnswer(t, attempt, eq, "", &correct.ID)

	if _, err := env.autoGrader.GradeMultipleChoice(nil, attempt.ID); err != nil {
		t.Fatalf("seed system grade: %v", err)
	}
	system := env.gradeFor(t, answer.ID)

	grade, err := env.grading.EditGrade(teacherID, model.Teacher, system.ID, GradeAnswerRequest{Marks: 2, Feedback: "partial credit"})
	if err != nil {
		t.Fatalf("EditGrade: %v", err)
	}
	if grade.MarksAwarded != 2 || grade.Source != model.GradeSourceTeacher {
		t.Errorf("grade = %v %s, want 2 TEACHER", grade.MarksAwarded, grade.Source)
	}
}

func TestBatchGradeAutoFinalize(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 10)
	eq1 := env.addFreeText(t, exam, model.QuestionShortAnswer, 5)
	eq2 := env.addFreeText(t, exam, model.QuestionShortAnswer, 5)
	eq3 := env.addFreeText(t, exam, model.QuestionLongAnswer, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	a1 := env.addAnswer(t, attempt, eq1, "one", nil)
	a2 := env.addAnswer(t, attempt, eq2, "two", nil)
	a3 := env.addAnswer(t, attempt, eq3, "three", nil)

	out, err := env.grading.BatchGrade(teacherID, model.Teacher, attempt.ID, BatchGradeRequest{
		Items: []BatchGradeItem{
			{AnswerID: a1.ID, Marks: 5, Feedback: "full"},
			{AnswerID: a2.ID, Marks: 3},
			{AnswerID: a3.ID, Marks: 7},
		},
		AutoFinalize: true,
	})
	if err != nil {
		t.Fatalf("BatchGrade: %v", err)
	}
	if out.Applied != 3 || len(out.Errors) != 0 {
		t.Fatalf("out = %+v, want 3 applied no errors", out)
	}
	if !out.Finalized || out.Result == nil {
		t.Fatal("autoFinalize with everything graded should produce a result")
	}
	if out.Result.ObtainedMarks != 15 || out.Result.TotalMarks != 20 {
		t.Errorf("result = %v/%v, want 15/20", out.Result.ObtainedMarks, out.Result.TotalMarks)
	}
	if got := env.attemptStatus(t, attempt.ID); got != model.AttemptGraded {
		t.Errorf("status = %s, want GRADED", got)
	}
}

func TestBatchGradeReportsPerItemErrors(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq1 := env.addFreeText(t, exam, model.QuestionShortAnswer, 5)
	eq2 := env.addFreeText(t, exam, model.QuestionShortAnswer, 5)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	a1 := env.addAnswer(t, attempt, eq1, "one", nil)
	a2 := env.addAnswer(t, attempt, eq2, "two", nil)

	out, err := env.grading.BatchGrade(teacherID, model.Teacher, attempt.ID, BatchGradeRequest{
		Items: []BatchGradeItem{
			{AnswerID: a1.ID, Marks: 4},
			{AnswerID: a2.ID, Marks: 99},
			{AnswerID: 4242, Marks: 1},
		},
	})
	if err != nil {
		t.Fatalf("BatchGrade: %v", err)
	}
	if out.Applied != 1 {
		t.Errorf("applied = %d, want 1", out.Applied)
	}
	if len(out.Errors) != 2 {
		t.Fatalf("errors = %+v, want 2 per-item errors", out.Errors)
	}
	if g := env.gradeFor(t, a1.ID); g.MarksAwarded != 4 {
		t.Errorf("valid item not applied: %v", g.MarksAwarded)
	}
	if out.Finalized {
		t.Error("no autoFinalize requested")
	}
}

func TestReopenRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	exam := env.createExam(t, teacherID, 5)
	eq, correct, _ := env.addMCQ(t, exam, 10)
	attempt := env.createAttempt(t, exam, studentID, model.AttemptSubmitted)
	env.addAnswer(t, attempt, eq, "", &correct.ID)
	if _, err := env.grading.FinalizeSession(teacherID, model.Teacher, attempt.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if err := env.grading.ReopenSession(otherID, model.Teacher, attempt.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}
