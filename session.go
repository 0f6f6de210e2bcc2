package sheetquiz

import (
	"context"
	"fmt"
	"strings"
)

// State is the position of a quiz session in its lifecycle
type State int

const (
	StateNoExam State = iota
	StateAwaitingAnswer
	StateShowingFeedback
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNoExam:
		return "no_exam"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateShowingFeedback:
		return "showing_feedback"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one learner's run through an exam. It is not safe for
// concurrent use; the registry serialises access per learner.
type Session struct {
	state    State
	exam     *Exam
	index    int
	feedback *Feedback
	correct  int
	answered int
}

// NewSession returns a session with no exam selected
func NewSession() *Session {
	return &Session{}
}

// Start loads the named exam from src and shows its first question
func (s *Session) Start(ctx context.Context, src QuestionSource, name string) error {
	if s.state != StateNoExam && s.state != StateCompleted {
		return fmt.Errorf("start %q from %s: %w", name, s.state, ErrIllegalState)
	}

	exam, err := src.LoadExam(ctx, name)
	if err != nil {
		return err
	}
	if len(exam.Questions) == 0 {
		return fmt.Errorf("start %q: %w", name, ErrEmptyExam)
	}

	s.exam = exam
	s.index = 0
	s.feedback = nil
	s.correct = 0
	s.answered = 0
	s.state = StateAwaitingAnswer
	return nil
}

// Submit records the learner's answer to the current question
func (s *Session) Submit(letter string) (*Feedback, error) {
	if s.state != StateAwaitingAnswer {
		return nil, fmt.Errorf("submit from %s: %w", s.state, ErrIllegalState)
	}

	q := s.exam.Questions[s.index]
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if !q.HasOption(letter) {
		return nil, fmt.Errorf("%w: %q not in %v", ErrInvalidAnswer, letter, q.Letters())
	}

	fb := &Feedback{
		Chosen:      letter,
		ChosenText:  q.Options[letter],
		IsCorrect:   letter == q.Correct,
		Correct:     q.Correct,
		CorrectText: q.Options[q.Correct],
		Explanation: q.ExplanationCorrect,
	}
	if !fb.IsCorrect && q.ExplanationIncorrect != "" {
		fb.Explanation = q.ExplanationIncorrect
	}

	s.answered++
	if fb.IsCorrect {
		s.correct++
	}
	s.feedback = fb
	s.state = StateShowingFeedback
	return fb, nil
}

// Advance moves past the answered question. It reports whether the exam is
// now completed.
func (s *Session) Advance() (bool, error) {
	if s.state != StateShowingFeedback {
		return false, fmt.Errorf("advance from %s: %w", s.state, ErrIllegalState)
	}

	s.feedback = nil
	if s.index+1 < len(s.exam.Questions) {
		s.index++
		s.state = StateAwaitingAnswer
		return false, nil
	}
	s.state = StateCompleted
	return true, nil
}

// Reset drops the exam and returns to the exam list
func (s *Session) Reset() {
	*s = Session{}
}

func (s *Session) State() State {
	return s.state
}

// ExamName returns the selected exam, empty in StateNoExam
func (s *Session) ExamName() string {
	if s.exam == nil {
		return ""
	}
	return s.exam.Name
}

func (s *Session) Index() int {
	return s.index
}

// Total returns the number of questions in the selected exam
func (s *Session) Total() int {
	if s.exam == nil {
		return 0
	}
	return len(s.exam.Questions)
}

// Current returns the question being shown, if any
func (s *Session) Current() (Question, bool) {
	if s.state != StateAwaitingAnswer && s.state != StateShowingFeedback {
		return Question{}, false
	}
	return s.exam.Questions[s.index], true
}

// Feedback returns the last submitted answer's feedback while it is shown
func (s *Session) Feedback() *Feedback {
	return s.feedback
}

// Score returns the number of correct answers and answered questions so far
func (s *Session) Score() (correct, answered int) {
	return s.correct, s.answered
}
