package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"sheetquiz"

	"go.uber.org/zap"
)

const notInitialized = "Exam session not initialized. Please select an exam."

type homeView struct {
	Title   string
	Exams   []string
	Error   string
	Message string
}

type flashcardView struct {
	Title    string
	ExamName string
	Index    int
	Total    int
	Question sheetquiz.Question
	Letters  []string
	Feedback *sheetquiz.Feedback
	Correct  int
	Answered int
	Notice   string
}

// handleHome lists the exams and drops any exam in progress
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// Visitors without a cookie have nothing to reset
	if s.hasSession(r) {
		_, session, release := s.acquire(w, r)
		session.Reset()
		release()
	}

	view := homeView{
		Title:   "Select Exam",
		Error:   r.URL.Query().Get("error"),
		Message: r.URL.Query().Get("message"),
	}

	ctx, cancel := s.fetchContext(r)
	defer cancel()

	exams, err := s.source.ListExams(ctx)
	if err != nil {
		s.logger.Error("failed to list exams", zap.Error(err))
		view.Error = userMessage(err)
		s.render(w, "main", http.StatusOK, view)
		return
	}

	view.Exams = exams
	s.render(w, "main", http.StatusOK, view)
}

// handleStartExam serves /exam/{name}
func (s *Server) handleStartExam(w http.ResponseWriter, r *http.Request) {
	escaped := strings.TrimPrefix(r.URL.EscapedPath(), "/exam/")
	name, err := url.PathUnescape(escaped)
	if err != nil || name == "" || strings.Contains(escaped, "/") {
		http.NotFound(w, r)
		return
	}

	id, session, release := s.acquire(w, r)
	defer release()

	ctx, cancel := s.fetchContext(r)
	defer cancel()

	session.Reset()
	if err := session.Start(ctx, s.source, name); err != nil {
		s.logger.Error("failed to start exam", zap.String("exam", name), zap.String("session", id), zap.Error(err))
		if errors.Is(err, sheetquiz.ErrEmptyExam) {
			redirectHome(w, r, "error", fmt.Sprintf("No questions found for exam '%s'.", name))
			return
		}
		redirectHome(w, r, "error", fmt.Sprintf("Error loading exam '%s': %s", name, userMessage(err)))
		return
	}

	s.logger.Info("exam started", zap.String("exam", name), zap.String("session", id), zap.Int("questions", session.Total()))
	http.Redirect(w, r, "/question", http.StatusSeeOther)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, session, release := s.acquire(w, r)
	defer release()

	view, ok := newFlashcardView(session)
	if !ok {
		redirectHome(w, r, "error", notInitialized)
		return
	}
	s.render(w, "flashcard", http.StatusOK, view)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	id, session, release := s.acquire(w, r)
	defer release()

	if session.State() == sheetquiz.StateNoExam {
		redirectHome(w, r, "error", notInitialized)
		return
	}

	letter := r.FormValue("answer")
	if strings.TrimSpace(letter) == "" {
		http.Redirect(w, r, "/question", http.StatusSeeOther)
		return
	}

	feedback, err := session.Submit(letter)
	switch {
	case errors.Is(err, sheetquiz.ErrInvalidAnswer):
		view, _ := newFlashcardView(session)
		view.Notice = fmt.Sprintf("'%s' is not one of the options, please pick again.", letter)
		s.render(w, "flashcard", http.StatusBadRequest, view)
		return
	case errors.Is(err, sheetquiz.ErrIllegalState):
		s.logger.Warn("answer out of sequence", zap.String("session", id), zap.Stringer("state", session.State()))
		http.Redirect(w, r, "/question", http.StatusSeeOther)
		return
	case err != nil:
		s.logger.Error("failed to submit answer", zap.String("session", id), zap.Error(err))
		http.Redirect(w, r, "/question", http.StatusSeeOther)
		return
	}

	s.logger.Info("answer submitted",
		zap.String("exam", session.ExamName()),
		zap.Int("index", session.Index()),
		zap.String("answer", feedback.Chosen),
		zap.Bool("correct", feedback.IsCorrect),
	)
	http.Redirect(w, r, "/question", http.StatusSeeOther)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, session, release := s.acquire(w, r)
	defer release()

	if session.State() == sheetquiz.StateNoExam {
		redirectHome(w, r, "error", notInitialized)
		return
	}

	completed, err := session.Advance()
	if err != nil {
		s.logger.Warn("advance out of sequence", zap.String("session", id), zap.Stringer("state", session.State()))
		http.Redirect(w, r, "/question", http.StatusSeeOther)
		return
	}

	if !completed {
		http.Redirect(w, r, "/question", http.StatusSeeOther)
		return
	}

	name := session.ExamName()
	correct, answered := session.Score()
	s.logger.Info("exam completed", zap.String("exam", name), zap.String("session", id), zap.Int("correct", correct), zap.Int("answered", answered))
	session.Reset()

	redirectHome(w, r, "message", fmt.Sprintf(
		"You've completed all questions for %s! You got %d of %d right. Choose another exam.",
		name, correct, answered,
	))
}

func newFlashcardView(session *sheetquiz.Session) (flashcardView, bool) {
	question, ok := session.Current()
	if !ok {
		return flashcardView{}, false
	}

	correct, answered := session.Score()
	return flashcardView{
		Title:    fmt.Sprintf("%s - Q%d", session.ExamName(), session.Index()+1),
		ExamName: session.ExamName(),
		Index:    session.Index(),
		Total:    session.Total(),
		Question: question,
		Letters:  question.Letters(),
		Feedback: session.Feedback(),
		Correct:  correct,
		Answered: answered,
	}, true
}

// userMessage returns text fit to show on a page for a source error
func userMessage(err error) string {
	var re *sheetquiz.RetrievalError
	if errors.As(err, &re) {
		return re.Error()
	}
	return "an unexpected error occurred, please try again later"
}
