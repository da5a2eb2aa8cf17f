package model

import "testing"

func TestAttemptTransitions(t *testing.T) {
	allowed := []struct {
		from, to AttemptStatus
	}{
		{AttemptNotStarted, AttemptInProgress},
		{AttemptInProgress, AttemptSubmitted},
		{AttemptSubmitted, AttemptGrading},
		{AttemptGrading, AttemptSubmitted},
		{AttemptGrading, AttemptGraded},
		{AttemptGraded, AttemptGrading},
	}
	for _, tr := range allowed {
		if !tr.from.CanTransitionTo(tr.to) {
			t.Errorf("expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}

	denied := []struct {
		from, to AttemptStatus
	}{
		{AttemptNotStarted, AttemptSubmitted},
		{AttemptNotStarted, AttemptGraded},
		{AttemptInProgress, AttemptGrading},
		{AttemptInProgress, AttemptNotStarted},
		{AttemptSubmitted, AttemptGraded},
		{AttemptSubmitted, AttemptInProgress},
		{AttemptGraded, AttemptSubmitted},
		{AttemptGraded, AttemptNotStarted},
	}
	for _, tr := range denied {
		if tr.from.CanTransitionTo(tr.to) {
			t.Errorf("expected %s -> %s to be denied", tr.from, tr.to)
		}
	}
}

func TestAttemptStatusIsGradable(t *testing.T) {
	gradable := map[AttemptStatus]bool{
		AttemptNotStarted: false,
		AttemptInProgress: false,
		AttemptSubmitted:  true,
		AttemptGrading:    true,
		AttemptGraded:     false,
	}
	for status, want := range gradable {
		if got := status.IsGradable(); got != want {
			t.Errorf("IsGradable(%s) = %v, want %v", status, got, want)
		}
	}
}
