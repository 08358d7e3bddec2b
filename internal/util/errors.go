package util

import "errors"

var (
	ErrNoActiveTerm             = errors.New("no active term")
	ErrInvalidWeekNumber        = errors.New("week number outside term range")
	ErrProgressNotFound         = errors.New("progress record not found")
	ErrAssessmentNotAccessible  = errors.New("assessment not accessible yet")
	ErrAssessmentWindowClosed   = errors.New("assessment window closed")
	ErrSubmissionExists         = errors.New("submission already exists")
	ErrInsufficientQuestions    = errors.New("question bank below minimum question count")
	ErrConflictUnresolved       = errors.New("schedule conflict not resolved")
	ErrConflictAlreadyResolved  = errors.New("schedule conflict already resolved")
	ErrPreviousPeriodIncomplete = errors.New("previous period not completed")
	ErrStudentNotFound          = errors.New("student profile not found")
	ErrTermNotFound             = errors.New("term not found")
)
