package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"sheetquiz"
)

func main() {
	source := sheetquiz.BindSourceFlags(flag.CommandLine, sheetquiz.SourceWorkbook)
	var (
		into    = flag.String("into", "./questions.db", "SQLite question bank to import into")
		exam    = flag.String("exam", "", "Import only this exam tab (default: every exam tab)")
		timeout = flag.Duration("timeout", 2*time.Minute, "Overall import timeout")
		verbose = flag.Bool("verbose", false, "Enable verbose output")
	)

	flag.Parse()

	env := "production"
	if *verbose {
		env = "local"
	}
	logger, err := sheetquiz.NewLogger(env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if source.Kind == sheetquiz.SourceSQLite && source.DBPath == *into {
		log.Fatal("Refusing to import a question bank into itself. Choose another -source or -into.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	reader, closeReader, err := sheetquiz.OpenReader(ctx, *source)
	if err != nil {
		log.Fatalf("Failed to open %s source: %v", source.Kind, err)
	}
	defer closeReader()

	// Initialize database
	db, err := sheetquiz.OpenDB(*into)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Create tables if they don't exist
	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	results, err := db.ImportFrom(ctx, reader, *exam)
	for _, result := range results {
		fmt.Printf("%-40s %5d rows\n", result.Exam, result.Rows)
	}
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	// Parse what was stored so skipped rows show up now rather than in the web app
	bank := sheetquiz.NewTableSource(db, logger)
	for _, result := range results {
		loaded, err := bank.LoadExam(ctx, result.Exam)
		if err != nil {
			log.Printf("Warning: %v", err)
			continue
		}
		if len(loaded.Skipped) > 0 {
			log.Printf("%s: %d valid questions, %d rows will be skipped", result.Exam, len(loaded.Questions), len(loaded.Skipped))
			for _, skipped := range loaded.Skipped {
				log.Printf("  row %d: %s", skipped.Row, skipped.Reason)
			}
		}
	}

	log.Printf("Imported %d exams into %s", len(results), *into)
}
