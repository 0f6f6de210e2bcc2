package sheetquiz

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is a SQLite question bank holding the cells of imported exam tabs
type DB struct {
	db *sql.DB
}

// DBExam is an exam row in the question bank
type DBExam struct {
	Name       string    `json:"name"`
	Position   int       `json:"position"`
	ImportedAt time.Time `json:"imported_at"`
	RowCount   int       `json:"row_count"`
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS exams (
			name TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			imported_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS exam_rows (
			exam TEXT NOT NULL,
			row_num INTEGER NOT NULL,
			question TEXT NOT NULL DEFAULT '',
			correct_answer TEXT NOT NULL DEFAULT '',
			explanation_correct TEXT NOT NULL DEFAULT '',
			explanation_incorrect TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (exam, row_num),
			FOREIGN KEY (exam) REFERENCES exams(name)
		)`,
		`CREATE TABLE IF NOT EXISTS exam_options (
			exam TEXT NOT NULL,
			row_num INTEGER NOT NULL,
			letter TEXT NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (exam, row_num, letter),
			FOREIGN KEY (exam, row_num) REFERENCES exam_rows(exam, row_num)
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// rowColumns are the non-option cells stored per exam row, in table order
var rowColumns = []string{
	HeaderQuestion,
	HeaderCorrect,
	HeaderExplanationCorrect,
	HeaderExplanationIncorrect,
}

// ReplaceExam stores the raw rows of one tab under name, replacing any
// previous import. The first row is the tab's header. Every "Answer X" column
// is kept under its letter; of the rest only the question, correct answer and
// explanation columns are stored. Every data row is stored, malformed or not,
// so row numbers stay those of the sheet.
func (db *DB) ReplaceExam(ctx context.Context, position int, name string, rows [][]string) (int, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoRows, name)
	}

	index := make(map[string]int, len(rows[0]))
	options := make(map[string]int)
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if _, seen := index[h]; !seen {
			index[h] = i
		}
		if letter, ok := optionLetter(h); ok {
			if _, seen := options[letter]; !seen {
				options[letter] = i
			}
		}
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM exam_options WHERE exam = ?", name); err != nil {
		return 0, fmt.Errorf("failed to clear exam options: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM exam_rows WHERE exam = ?", name); err != nil {
		return 0, fmt.Errorf("failed to clear exam rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO exams (name, position, imported_at) VALUES (?, ?, ?)",
		name, position, time.Now(),
	); err != nil {
		return 0, fmt.Errorf("failed to store exam: %w", err)
	}

	rowStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO exam_rows (exam, row_num, question, correct_answer, explanation_correct, explanation_incorrect)
		VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer rowStmt.Close()

	optionStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO exam_options (exam, row_num, letter, text) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare option insert: %w", err)
	}
	defer optionStmt.Close()

	cell := func(row []string, i int, ok bool) string {
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for i, row := range rows[1:] {
		rowNum := i + 2
		args := []interface{}{name, rowNum}
		for _, column := range rowColumns {
			j, ok := index[column]
			args = append(args, cell(row, j, ok))
		}
		if _, err := rowStmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to store row %d: %w", rowNum, err)
		}

		for letter, j := range options {
			text := cell(row, j, true)
			if strings.TrimSpace(text) == "" {
				continue
			}
			if _, err := optionStmt.ExecContext(ctx, name, rowNum, letter, text); err != nil {
				return 0, fmt.Errorf("failed to store option %s of row %d: %w", letter, rowNum, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(rows) - 1, nil
}

// GetExams retrieves every imported exam with its stored row count
func (db *DB) GetExams(ctx context.Context) ([]DBExam, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT name, position, imported_at,
			(SELECT COUNT(*) FROM exam_rows WHERE exam_rows.exam = exams.name)
		FROM exams ORDER BY position, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get exams: %w", err)
	}
	defer rows.Close()

	var exams []DBExam
	for rows.Next() {
		var exam DBExam
		if err := rows.Scan(&exam.Name, &exam.Position, &exam.ImportedAt, &exam.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan exam: %w", err)
		}
		exams = append(exams, exam)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exams: %w", err)
	}

	return exams, nil
}

// Tabs lists the imported exam names in import order
func (db *DB) Tabs(ctx context.Context) ([]string, error) {
	exams, err := db.GetExams(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(exams))
	for i, exam := range exams {
		names[i] = exam.Name
	}
	return names, nil
}

// Rows returns the stored rows of an exam. The header holds one "Answer X"
// column per option letter stored for the exam, in letter order.
func (db *DB) Rows(ctx context.Context, tab string) ([][]string, error) {
	var exists bool
	err := db.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM exams WHERE name = ?)", tab).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check if exam exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrExamNotFound, tab)
	}

	options, letters, err := db.examOptions(ctx, tab)
	if err != nil {
		return nil, err
	}

	rows, err := db.db.QueryContext(ctx,
		`SELECT row_num, question, correct_answer, explanation_correct, explanation_incorrect
		FROM exam_rows WHERE exam = ? ORDER BY row_num`,
		tab,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam rows: %w", err)
	}
	defer rows.Close()

	header := []string{HeaderQuestion}
	for _, letter := range letters {
		header = append(header, answerHeaderPrefix+letter)
	}
	header = append(header, HeaderCorrect, HeaderExplanationCorrect, HeaderExplanationIncorrect)

	table := [][]string{header}
	for rows.Next() {
		var (
			rowNum                                  int
			question, correct, explCorrect, explBad string
		)
		if err := rows.Scan(&rowNum, &question, &correct, &explCorrect, &explBad); err != nil {
			return nil, fmt.Errorf("failed to scan exam row: %w", err)
		}

		row := []string{question}
		for _, letter := range letters {
			row = append(row, options[rowNum][letter])
		}
		row = append(row, correct, explCorrect, explBad)
		table = append(table, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exam rows: %w", err)
	}

	return table, nil
}

// examOptions loads the option cells of an exam keyed by row and letter,
// plus the sorted set of letters in use
func (db *DB) examOptions(ctx context.Context, exam string) (map[int]map[string]string, []string, error) {
	rows, err := db.db.QueryContext(ctx,
		"SELECT row_num, letter, text FROM exam_options WHERE exam = ? ORDER BY letter",
		exam,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get exam options: %w", err)
	}
	defer rows.Close()

	options := make(map[int]map[string]string)
	var letters []string
	seen := make(map[string]bool)
	for rows.Next() {
		var (
			rowNum       int
			letter, text string
		)
		if err := rows.Scan(&rowNum, &letter, &text); err != nil {
			return nil, nil, fmt.Errorf("failed to scan exam option: %w", err)
		}
		if options[rowNum] == nil {
			options[rowNum] = make(map[string]string)
		}
		options[rowNum][letter] = text
		if !seen[letter] {
			seen[letter] = true
			letters = append(letters, letter)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating exam options: %w", err)
	}

	return options, letters, nil
}

// ImportResult reports how one exam tab was imported
type ImportResult struct {
	Exam string
	Rows int
}

// ImportFrom copies the exam tabs of reader into the question bank, keeping
// tab order. With only set, just that exam is copied.
func (db *DB) ImportFrom(ctx context.Context, reader TableReader, only string) ([]ImportResult, error) {
	tabs, err := reader.Tabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}

	var results []ImportResult
	position := 0
	for _, tab := range tabs {
		if strings.HasPrefix(tab, "_") {
			continue
		}
		position++
		if only != "" && tab != only {
			continue
		}

		rows, err := reader.Rows(ctx, tab)
		if err != nil {
			return results, fmt.Errorf("failed to read tab %q: %w", tab, err)
		}
		n, err := db.ReplaceExam(ctx, position, tab, rows)
		if err != nil {
			return results, fmt.Errorf("failed to import tab %q: %w", tab, err)
		}
		results = append(results, ImportResult{Exam: tab, Rows: n})
	}

	if only != "" && len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrExamNotFound, only)
	}
	return results, nil
}
