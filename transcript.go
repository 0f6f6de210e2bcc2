package sheetquiz

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Transcript records every reviewer prompt and response of one review run
type Transcript struct {
	w      io.Writer
	closer io.Closer
	mu     sync.Mutex
	now    func() time.Time
}

// NewTranscript creates log/<runID>.log under dir and writes the run header
func NewTranscript(dir, runID, exam string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", runID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	t := newTranscript(file, file)
	t.Logf("=== Exam Review Log ===\n")
	t.Logf("Run ID: %s\n", runID)
	t.Logf("Exam: %s\n", exam)
	t.Logf("Started: %s\n", t.now().Format(time.RFC3339))
	t.Logf("=======================\n\n")
	return t, nil
}

func newTranscript(w io.Writer, closer io.Closer) *Transcript {
	return &Transcript{w: w, closer: closer, now: time.Now}
}

// Logf writes a formatted entry with timestamp
func (t *Transcript) Logf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timestamp := t.now().Format("15:04:05.000")
	fmt.Fprintf(t.w, "[%s] %s", timestamp, fmt.Sprintf(format, args...))

	if f, ok := t.w.(*os.File); ok {
		f.Sync()
	}
}

func (t *Transcript) LogRequest(row int, prompt string) {
	t.Logf("=== REQUEST (row %d) ===\n", row)
	t.Logf("Prompt:\n%s\n", prompt)
	t.Logf("=====================\n\n")
}

func (t *Transcript) LogResponse(row int, response string) {
	t.Logf("=== RESPONSE (row %d) ===\n", row)
	t.Logf("Response:\n%s\n", response)
	t.Logf("======================\n\n")
}

func (t *Transcript) LogVerdict(review *Review) {
	if review.Suggestion != "" {
		t.Logf("Row %d: %s - %s (suggestion: %s)\n", review.Row, review.Verdict, review.Reason, review.Suggestion)
		return
	}
	t.Logf("Row %d: %s - %s\n", review.Row, review.Verdict, review.Reason)
}

// Close writes the footer and closes the file
func (t *Transcript) Close() error {
	if t.closer == nil {
		return nil
	}
	t.Logf("=== Review Complete ===\n")
	t.Logf("Completed: %s\n", t.now().Format(time.RFC3339))

	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.closer.Close()
	t.closer = nil
	return err
}
