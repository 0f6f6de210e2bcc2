package main

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"sheetquiz"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	cookieName   = "quiz-session"
	sessionIDKey = "sid"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	source       sheetquiz.QuestionSource
	registry     *sheetquiz.SessionRegistry
	store        sessions.Store
	templates    map[string]*template.Template
	fetchTimeout time.Duration
	logger       *zap.Logger
}

func NewServer(source sheetquiz.QuestionSource, registry *sheetquiz.SessionRegistry, store sessions.Store, fetchTimeout time.Duration, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	return &Server{
		source:       source,
		registry:     registry,
		store:        store,
		templates:    templates,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}, nil
}

func loadTemplates() (map[string]*template.Template, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"pathescape": url.PathEscape,
	}

	templateFiles := []struct {
		name string
		file string
	}{
		{"main", "templates/main.html"},
		{"flashcard", "templates/flashcard.html"},
	}

	templates := make(map[string]*template.Template)
	for _, tmpl := range templateFiles {
		t, err := template.New(tmpl.name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", tmpl.file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", tmpl.name, err)
		}
		templates[tmpl.name] = t
	}
	return templates, nil
}

// Routes returns the HTTP handler for the whole application
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/exam/", s.handleStartExam)
	mux.HandleFunc("/question", s.handleQuestion)
	mux.HandleFunc("/answer", s.handleAnswer)
	mux.HandleFunc("/next", s.handleNext)
	mux.HandleFunc("/next_question", s.handleNext)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// acquire returns the learner's quiz session locked for this request. The
// cookie is written on every call so its expiry follows the learner's last
// activity, and carries a new id when the old one was missing or had expired.
func (s *Server) acquire(w http.ResponseWriter, r *http.Request) (string, *sheetquiz.Session, func()) {
	cookie, err := s.store.Get(r, cookieName)
	if err != nil {
		// A cookie signed with an old key decodes to a fresh session
		s.logger.Debug("discarding unreadable session cookie", zap.Error(err))
	}

	oldID, _ := cookie.Values[sessionIDKey].(string)
	id, session, release := s.registry.Acquire(oldID)
	cookie.Values[sessionIDKey] = id
	if err := cookie.Save(r, w); err != nil {
		s.logger.Error("session save error", zap.String("session", id), zap.Error(err))
	}
	return id, session, release
}

// hasSession reports whether the request carries a readable session id
func (s *Server) hasSession(r *http.Request) bool {
	cookie, err := s.store.Get(r, cookieName)
	if err != nil {
		return false
	}
	id, _ := cookie.Values[sessionIDKey].(string)
	return id != ""
}

func (s *Server) fetchContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.fetchTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.fetchTimeout)
}

func (s *Server) render(w http.ResponseWriter, name string, status int, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates[name].ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.logger.Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// redirectHome sends the learner back to the exam list with a notice
func redirectHome(w http.ResponseWriter, r *http.Request, key, text string) {
	target := "/"
	if text != "" {
		target += "?" + url.Values{key: []string{text}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
