package sheetquiz

import (
	"context"
	"testing"
)

const sampleFixture = `
tabs:
  - title: Networking
    rows:
      - [Question, Answer A, Answer B, Answer C, Answer D, Correct Answer, Explanation-Correct, Explanation-Incorrect]
      - [What does TCP stand for?, Transfer Control Protocol, Transmission Control Protocol, Text Control Protocol, Transport Core Protocol, B, It is the Transmission Control Protocol., ""]
      - ["", a, b, c, d, A, "", ""]
      - [Which layer routes packets?, Physical, Data link, Network, Session, c, Routing happens at layer 3., Layer 3 is the network layer.]
  - title: _Settings
    rows:
      - [key, value]
  - title: Broken
    rows:
      - [Question, Answer A, Correct Answer]
      - [No answer marked, yes, ""]
`

func sampleReader(t *testing.T) *FixtureReader {
	t.Helper()
	reader, err := ParseFixture([]byte(sampleFixture))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return reader
}

// stubSource serves prebuilt exams and counts loads
type stubSource struct {
	exams map[string]*Exam
	err   error
	loads int
}

func (s *stubSource) ListExams(_ context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	names := make([]string, 0, len(s.exams))
	for name := range s.exams {
		names = append(names, name)
	}
	return names, nil
}

func (s *stubSource) LoadExam(_ context.Context, name string) (*Exam, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	exam, ok := s.exams[name]
	if !ok {
		return nil, &RetrievalError{Exam: name, Err: ErrExamNotFound}
	}
	return exam, nil
}

func twoQuestionExam(name string) *Exam {
	return &Exam{
		Name: name,
		Questions: []Question{
			{
				Row:                2,
				Text:               "Q1",
				Options:            map[string]string{"A": "a1", "B": "b1", "C": "c1", "D": "d1"},
				Correct:            "B",
				ExplanationCorrect: "B is right",
			},
			{
				Row:                  3,
				Text:                 "Q2",
				Options:              map[string]string{"A": "a2", "B": "b2", "C": "c2", "D": "d2"},
				Correct:              "C",
				ExplanationCorrect:   "C is right",
				ExplanationIncorrect: "Not quite, it is C",
			},
		},
	}
}
