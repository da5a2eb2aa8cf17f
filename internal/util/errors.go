package util

import "errors"

var (
	ErrExamNotFound         = errors.New("exam not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAnswerNotFound       = errors.New("answer not found")
	ErrGradeNotFound        = errors.New("grade not found")
	ErrResultNotFound       = errors.New("result not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrMarksOutOfRange      = errors.New("marks must be between 0 and the question's max marks")
	ErrAttemptNotGradable   = errors.New("attempt is not in a gradable state")
	ErrAttemptNotGraded     = errors.New("attempt has not been graded")
	ErrAttemptNotInProgress = errors.New("attempt is not in progress")
	ErrAttemptAlreadyExists = errors.New("attempt already exists for this exam")
	ErrAttemptSubmitted     = errors.New("attempt already submitted")
	ErrNotFullyGraded       = errors.New("attempt has ungraded answers; grade all answers before finalizing")
)
