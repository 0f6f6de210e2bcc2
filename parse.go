package sheetquiz

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Column headers recognised in an exam tab
const (
	HeaderQuestion             = "Question"
	HeaderCorrect              = "Correct Answer"
	HeaderExplanationCorrect   = "Explanation-Correct"
	HeaderExplanationIncorrect = "Explanation-Incorrect"
	answerHeaderPrefix         = "Answer "
)

// ParseExam converts the raw cells of one tab into an Exam. The first row is
// the header. Rows without question text, without a correct letter, or whose
// correct letter has no option text are skipped and recorded in Exam.Skipped.
func ParseExam(name string, rows [][]string, logger *zap.Logger) (*Exam, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(rows) < 2 {
		logger.Warn("no data rows in exam tab", zap.String("exam", name), zap.Int("rows", len(rows)))
		return nil, ErrNoRows
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	columns := make(map[string]int, len(header))
	optionColumns := make(map[string]int)
	for i, h := range header {
		if _, seen := columns[h]; !seen {
			columns[h] = i
		}
		if letter, ok := optionLetter(h); ok {
			if _, seen := optionColumns[letter]; !seen {
				optionColumns[letter] = i
			}
		}
	}

	_, hasQuestion := columns[HeaderQuestion]
	_, hasCorrect := columns[HeaderCorrect]
	if !hasQuestion || !hasCorrect {
		logger.Error("missing critical headers", zap.String("exam", name), zap.Strings("header", header))
		return nil, fmt.Errorf("%w: found %v", ErrMissingHeaders, header)
	}

	cell := func(row []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	exam := &Exam{Name: name}
	for idx, row := range rows[1:] {
		rowNum := idx + 2

		text := strings.TrimSpace(cell(row, HeaderQuestion))
		correct := strings.ToUpper(strings.TrimSpace(cell(row, HeaderCorrect)))

		options := make(map[string]string, len(optionColumns))
		for letter, i := range optionColumns {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				options[letter] = row[i]
			}
		}

		var reason string
		switch {
		case text == "":
			reason = "empty question text"
		case correct == "":
			reason = "empty correct answer"
		case options[correct] == "":
			reason = fmt.Sprintf("correct answer %q is not one of the options", correct)
		}
		if reason != "" {
			logger.Warn("skipping row",
				zap.String("exam", name),
				zap.Int("row", rowNum),
				zap.String("reason", reason),
			)
			exam.Skipped = append(exam.Skipped, SkippedRow{Row: rowNum, Reason: reason})
			continue
		}

		exam.Questions = append(exam.Questions, Question{
			Row:                  rowNum,
			Text:                 text,
			Options:              options,
			Correct:              correct,
			ExplanationCorrect:   cell(row, HeaderExplanationCorrect),
			ExplanationIncorrect: cell(row, HeaderExplanationIncorrect),
		})
	}

	if len(exam.Questions) == 0 {
		logger.Warn("no valid questions after filtering rows", zap.String("exam", name), zap.Int("skipped", len(exam.Skipped)))
	} else {
		logger.Info("parsed exam",
			zap.String("exam", name),
			zap.Int("questions", len(exam.Questions)),
			zap.Int("skipped", len(exam.Skipped)),
		)
	}
	return exam, nil
}

// optionLetter extracts X from an "Answer X" header
func optionLetter(header string) (string, bool) {
	if !strings.HasPrefix(header, answerHeaderPrefix) {
		return "", false
	}
	letter := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(header, answerHeaderPrefix)))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return "", false
	}
	return letter, true
}
