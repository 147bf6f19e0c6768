package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"odte-trader/internal/logger"
	"odte-trader/internal/report"
	"odte-trader/internal/report/reportobs"
	"odte-trader/internal/store"
	"odte-trader/internal/trace"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	journalPath := flag.String("journal", "", "trade journal CSV path (overrides config)")
	outDir := flag.String("out", "logs/reports", "directory for the summary CSV")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	ctx := context.Background()
	defer func() {
		_ = logger.Shutdown(ctx)
		_ = trace.Shutdown(ctx)
	}()

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving timezone: %v\n", err)
		os.Exit(1)
	}

	path := cfg.Journal.Path
	if *journalPath != "" {
		path = *journalPath
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "No journal path configured; pass -journal or set journal.path")
		os.Exit(1)
	}

	rep := reportobs.Wrap(report.NewSummarizer(*outDir, loc))
	outPath, err := rep.Summarize(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error summarizing journal: %v\n", err)
		os.Exit(1)
	}
	if outPath == "" {
		fmt.Println("Journal holds no trades; nothing to summarize")
		return
	}
	fmt.Printf("Daily summary written to %s\n", outPath)
}
