package sheetquiz

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// QuestionSource lists exams and loads the questions of one exam
type QuestionSource interface {
	ListExams(ctx context.Context) ([]string, error)
	LoadExam(ctx context.Context, name string) (*Exam, error)
}

// TableReader is a spreadsheet-like backend: named tabs of string cells.
// Rows returns an error wrapping ErrExamNotFound when the tab does not exist.
type TableReader interface {
	Tabs(ctx context.Context) ([]string, error)
	Rows(ctx context.Context, tab string) ([][]string, error)
}

// TableSource turns any TableReader into a QuestionSource
type TableSource struct {
	reader TableReader
	logger *zap.Logger
}

// NewTableSource creates a question source reading exams from reader
func NewTableSource(reader TableReader, logger *zap.Logger) *TableSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableSource{reader: reader, logger: logger}
}

// ListExams returns the tab titles that hold exams. Tabs whose title starts
// with an underscore are helper tabs and are left out.
func (s *TableSource) ListExams(ctx context.Context) ([]string, error) {
	tabs, err := s.reader.Tabs(ctx)
	if err != nil {
		s.logger.Error("failed to list exam tabs", zap.Error(err))
		return nil, &RetrievalError{Err: err}
	}

	exams := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		if strings.HasPrefix(tab, "_") {
			continue
		}
		exams = append(exams, tab)
	}
	s.logger.Debug("listed exams", zap.Strings("tabs", tabs), zap.Strings("exams", exams))
	return exams, nil
}

// LoadExam fetches one tab and parses it. The returned exam may hold zero
// questions when every row was malformed.
func (s *TableSource) LoadExam(ctx context.Context, name string) (*Exam, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &RetrievalError{Exam: name, Err: ErrExamNotFound}
	}

	rows, err := s.reader.Rows(ctx, name)
	if err != nil {
		s.logger.Error("failed to fetch exam rows", zap.String("exam", name), zap.Error(err))
		return nil, &RetrievalError{Exam: name, Err: err}
	}

	exam, err := ParseExam(name, rows, s.logger)
	if err != nil {
		return nil, &RetrievalError{Exam: name, Err: err}
	}
	return exam, nil
}

// IsRetrievalError reports whether err came from a question source
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}
