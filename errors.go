package sheetquiz

import (
	"errors"
	"fmt"
)

var (
	// ErrExamNotFound means the requested tab does not exist in the source
	ErrExamNotFound = errors.New("exam not found")
	// ErrQuotaExceeded means the remote source rejected the call for rate reasons
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrNoRows means the tab holds no header or no data rows
	ErrNoRows = errors.New("no question rows")
	// ErrMissingHeaders means the tab lacks the Question or Correct Answer column
	ErrMissingHeaders = errors.New("missing critical header columns")

	// ErrEmptyExam means an exam loaded fine but has no valid question to show
	ErrEmptyExam = errors.New("exam has no valid questions")
	// ErrInvalidAnswer means the submitted letter is not an option of the current question
	ErrInvalidAnswer = errors.New("invalid answer letter")
	// ErrIllegalState means a session operation was invoked out of sequence
	ErrIllegalState = errors.New("operation not allowed in current state")
)

// RetrievalError is returned when an exam list or exam cannot be fetched.
// Its message is safe to show to the learner.
type RetrievalError struct {
	Exam string // empty when listing exams
	Err  error
}

func (e *RetrievalError) Error() string {
	switch {
	case errors.Is(e.Err, ErrQuotaExceeded) && e.Exam == "":
		return "quota exceeded while fetching list of exams, please try again in a minute"
	case errors.Is(e.Err, ErrQuotaExceeded):
		return fmt.Sprintf("quota exceeded while fetching questions for %q, please try again in a minute", e.Exam)
	case errors.Is(e.Err, ErrExamNotFound):
		return fmt.Sprintf("exam tab %q not found", e.Exam)
	case errors.Is(e.Err, ErrMissingHeaders):
		return fmt.Sprintf("sheet %q is missing critical header columns (Question, Correct Answer)", e.Exam)
	case errors.Is(e.Err, ErrNoRows):
		return fmt.Sprintf("no questions found for exam %q, sheet might be empty or only contain a header", e.Exam)
	case e.Exam == "":
		return fmt.Sprintf("failed to list exams: %v", e.Err)
	default:
		return fmt.Sprintf("failed to load exam %q: %v", e.Exam, e.Err)
	}
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
