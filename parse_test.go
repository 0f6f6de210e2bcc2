package sheetquiz

import (
	"errors"
	"reflect"
	"testing"
)

var fullHeader = []string{"Question", "Answer A", "Answer B", "Answer C", "Answer D", "Correct Answer", "Explanation-Correct", "Explanation-Incorrect"}

func TestParseExamKeepsRowOrderAndNormalisesCorrectLetter(t *testing.T) {
	rows := [][]string{
		fullHeader,
		{"First?", "a", "b", "c", "d", " b ", "because b", ""},
		{"Second?", "a", "b", "c", "d", "D", "because d", "it was d"},
	}

	exam, err := ParseExam("Sample", rows, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(exam.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(exam.Questions))
	}

	first := exam.Questions[0]
	if first.Text != "First?" || first.Correct != "B" || first.Row != 2 {
		t.Fatalf("unexpected first question: %+v", first)
	}
	if first.ExplanationCorrect != "because b" || first.ExplanationIncorrect != "" {
		t.Fatalf("unexpected explanations: %+v", first)
	}

	second := exam.Questions[1]
	if second.Row != 3 || second.Correct != "D" || second.ExplanationIncorrect != "it was d" {
		t.Fatalf("unexpected second question: %+v", second)
	}
}

func TestParseExamSkipsMalformedRows(t *testing.T) {
	rows := [][]string{
		fullHeader,
		{"", "a", "b", "c", "d", "A", "", ""},           // no question text, all options filled
		{"No key?", "a", "b", "c", "d", "", "", ""},     // no correct letter
		{"Bad key?", "a", "b", "c", "d", "E", "", ""},   // correct letter not an option
		{"Blank key?", "a", "", "c", "d", "B", "", ""},  // correct option has no text
		{"Good?", "a", "b", "c", "d", "A", "yes", "no"}, // kept
	}

	exam, err := ParseExam("Sample", rows, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(exam.Questions) != 1 || exam.Questions[0].Text != "Good?" {
		t.Fatalf("expected only the good row, got %+v", exam.Questions)
	}

	var skippedRows []int
	for _, s := range exam.Skipped {
		skippedRows = append(skippedRows, s.Row)
	}
	if !reflect.DeepEqual(skippedRows, []int{2, 3, 4, 5}) {
		t.Fatalf("unexpected skipped rows %v", skippedRows)
	}
}

func TestParseExamOptionsAreLettersPresentInRow(t *testing.T) {
	rows := [][]string{
		{"Correct Answer", " Question ", "Answer A", "Answer B", "Answer C", "Answer D", "Answer E"},
		{"a", "Short row?", "yes", "no"},
		{"E", "Five options?", "1", "2", "3", "4", "5"},
	}

	exam, err := ParseExam("Sample", rows, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(exam.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d (skipped %v)", len(exam.Questions), exam.Skipped)
	}

	if got := exam.Questions[0].Letters(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("expected letters A,B got %v", got)
	}
	if got := exam.Questions[1].Letters(); !reflect.DeepEqual(got, []string{"A", "B", "C", "D", "E"}) {
		t.Fatalf("expected letters A-E got %v", got)
	}

	for _, q := range exam.Questions {
		if !q.HasOption(q.Correct) {
			t.Fatalf("question %q correct letter %q not in options", q.Text, q.Correct)
		}
	}
}

func TestParseExamRejectsMissingHeaders(t *testing.T) {
	rows := [][]string{
		{"Prompt", "Answer A", "Correct Answer"},
		{"What?", "x", "A"},
	}

	_, err := ParseExam("Sample", rows, nil)
	if !errors.Is(err, ErrMissingHeaders) {
		t.Fatalf("expected missing headers error, got %v", err)
	}
}

func TestParseExamRejectsHeaderOnly(t *testing.T) {
	for _, rows := range [][][]string{nil, {fullHeader}} {
		if _, err := ParseExam("Sample", rows, nil); !errors.Is(err, ErrNoRows) {
			t.Fatalf("expected no rows error for %v, got %v", rows, err)
		}
	}
}

func TestParseExamAllRowsInvalidYieldsEmptyExam(t *testing.T) {
	rows := [][]string{
		fullHeader,
		{"", "a", "b", "c", "d", "A", "", ""},
	}

	exam, err := ParseExam("Sample", rows, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(exam.Questions) != 0 || len(exam.Skipped) != 1 {
		t.Fatalf("expected empty exam with one skipped row, got %+v", exam)
	}
}
