package sheetquiz

import "sort"

// Question represents a single flashcard with letter-keyed answer options
type Question struct {
	Row                  int               `json:"row"` // 1-based sheet row, header is row 1
	Text                 string            `json:"text"`
	Options              map[string]string `json:"options"` // letter -> option text
	Correct              string            `json:"correct"` // one of the Options keys
	ExplanationCorrect   string            `json:"explanation_correct"`
	ExplanationIncorrect string            `json:"explanation_incorrect,omitempty"`
}

// Letters returns the option letters in alphabetical order
func (q Question) Letters() []string {
	letters := make([]string, 0, len(q.Options))
	for letter := range q.Options {
		letters = append(letters, letter)
	}
	sort.Strings(letters)
	return letters
}

// HasOption reports whether letter is one of the question's option keys
func (q Question) HasOption(letter string) bool {
	_, ok := q.Options[letter]
	return ok
}

// Exam is one tab's worth of questions, in source row order
type Exam struct {
	Name      string       `json:"name"`
	Questions []Question   `json:"questions"`
	Skipped   []SkippedRow `json:"skipped,omitempty"`
}

// SkippedRow records a source row that was dropped while loading an exam
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Feedback is the result shown after an answer was submitted
type Feedback struct {
	Chosen      string `json:"chosen"`
	ChosenText  string `json:"chosen_text"`
	IsCorrect   bool   `json:"is_correct"`
	Correct     string `json:"correct"`
	CorrectText string `json:"correct_text"`
	Explanation string `json:"explanation"`
}
