package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"sheetquiz"

	"github.com/google/uuid"
)

type report struct {
	Exam    string              `json:"exam"`
	RunID   string              `json:"run_id"`
	Reviews []*sheetquiz.Review `json:"reviews"`
	Errors  map[int]string      `json:"errors,omitempty"`
}

func main() {
	source := sheetquiz.BindSourceFlags(flag.CommandLine, sheetquiz.SourceSheets)
	var (
		exam       = flag.String("exam", "", "Exam tab to review (required)")
		model      = flag.String("model", "gpt-4o", "Chat model used for the review")
		apiKey     = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		outputFile = flag.String("output", "", "Output file for the review JSON (default: none)")
		logDir     = flag.String("log-dir", "log", "Directory for the review transcript")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	if *exam == "" {
		log.Fatal("Exam is required. Use -exam flag.")
	}

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal(sheetquiz.ErrMissingOpenAIKey)
		}
	}

	env := "production"
	if *verbose {
		env = "local"
	}
	logger, err := sheetquiz.NewLogger(env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	reader, closeReader, err := sheetquiz.OpenReader(ctx, *source)
	if err != nil {
		log.Fatalf("Failed to open %s source: %v", source.Kind, err)
	}
	defer closeReader()

	loaded, err := sheetquiz.NewTableSource(reader, logger).LoadExam(ctx, *exam)
	if err != nil {
		log.Fatalf("Failed to load exam: %v", err)
	}
	if len(loaded.Questions) == 0 {
		log.Fatal(sheetquiz.ErrEmptyExam)
	}

	runID := uuid.NewString()
	transcript, err := sheetquiz.NewTranscript(*logDir, runID, *exam)
	if err != nil {
		log.Printf("Failed to create transcript for run %s: %v", runID, err)
		// Continue without a transcript rather than failing
		transcript = nil
	} else {
		defer transcript.Close()
	}

	reviewer := sheetquiz.NewQuestionReviewer(*apiKey, *model)
	result := report{Exam: *exam, RunID: runID, Errors: map[int]string{}}
	counts := map[sheetquiz.Verdict]int{}

	for i, question := range loaded.Questions {
		review, err := reviewer.Review(ctx, *exam, question, transcript)
		if err != nil {
			log.Printf("Row %d: review failed: %v", question.Row, err)
			result.Errors[question.Row] = err.Error()
			continue
		}
		counts[review.Verdict]++
		result.Reviews = append(result.Reviews, review)

		fmt.Printf("[%d/%d] row %d: %s - %s\n", i+1, len(loaded.Questions), question.Row, review.Verdict, review.Reason)
		if review.Suggestion != "" {
			fmt.Printf("        suggestion: %s\n", review.Suggestion)
		}
	}

	fmt.Printf("\n%s: %d keep, %d fix, %d drop, %d failed, %d rows already skipped by the loader\n",
		*exam, counts[sheetquiz.VerdictKeep], counts[sheetquiz.VerdictFix], counts[sheetquiz.VerdictDrop],
		len(result.Errors), len(loaded.Skipped))

	if *outputFile != "" {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal review: %v", err)
		}
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Review saved to: %s", *outputFile)
	}
}
