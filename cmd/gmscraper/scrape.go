package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/shayan4Ii/google-map-scraper/internal/engine/scraper"
	"github.com/shayan4Ii/google-map-scraper/internal/engine/session"
	"github.com/shayan4Ii/google-map-scraper/internal/engine/storage"
	"github.com/shayan4Ii/google-map-scraper/internal/export"
	"github.com/shayan4Ii/google-map-scraper/internal/model"
)

// ErrNoSearchTerms is fatal: without terms there is nothing to scrape, so
// the program exits before any browser work.
var ErrNoSearchTerms = errors.New("no search terms: pass -search or add terms to the input file")

var summaryStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 2)

func runScrape(args []string) error {
	_ = godotenv.Load()

	var params model.SearchParams
	var search, inputPath, near string
	var settleMS int

	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	fs.StringVar(&search, "search", "", "Single search term (overrides the input file)")
	fs.IntVar(&params.Target, "total", 0, "Max results per term (0 = collect everything)")
	fs.StringVar(&inputPath, "input", "input.txt", "Newline-delimited search terms file")
	fs.StringVar(&params.OutputDir, "output", "output", "Output directory for CSV/XLSX/db/log files")
	fs.BoolVar(&params.Headless, "headless", envBool("HEADLESS", true), "Run Chrome headless")
	fs.IntVar(&settleMS, "settle", 3000, "Wait after each scroll/activation, in ms")
	fs.IntVar(&params.MaxPolls, "max-polls", 60, "Hard ceiling on discovery poll iterations per term")
	fs.StringVar(&params.Lang, "lang", "", "Search language (hl parameter)")
	fs.StringVar(&near, "near", "", "Keep only results near \"lat,lng\" (requires -radius)")
	fs.Float64Var(&params.RadiusKM, "radius", 0, "Geo filter radius in km")
	fs.BoolVar(&params.Debug, "debug", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gmscraper scrape [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gmscraper scrape -search \"dentist in new york\" -total 50\n")
		fmt.Fprintf(os.Stderr, "  gmscraper scrape -input terms.txt -output ./results\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	params.SettleWait = time.Duration(settleMS) * time.Millisecond

	if near != "" {
		lat, lng, err := parseNear(near)
		if err != nil {
			return err
		}
		if params.RadiusKM <= 0 {
			return fmt.Errorf("-near requires a positive -radius")
		}
		params.NearLat, params.NearLng = lat, lng
	}

	// Terms must resolve before any session work.
	queries, err := resolveSearchTerms(search, inputPath)
	if err != nil {
		return err
	}
	params.Queries = queries

	if err := os.MkdirAll(params.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	ts := time.Now().Format("20060102_150405")
	baseName := fmt.Sprintf("gmscraper_%s", ts)
	params.DBPath = filepath.Join(params.OutputDir, baseName+".db")
	logPath := filepath.Join(params.OutputDir, baseName+".log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()

	logger := newLogger(logFile, params.Debug)
	logger.Info().
		Strs("queries", params.Queries).
		Int("target", params.Target).
		Bool("headless", params.Headless).
		Msg("session start")
	fmt.Fprintf(os.Stderr, "Log: %s\n", logPath)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(params.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	browser, err := session.NewBrowser(ctx, params.Headless)
	if err != nil {
		return err
	}
	defer browser.Close()

	startTime := time.Now()
	stats, err := scraper.Run(ctx, browser, params, store, export.NewWriter(params.OutputDir), logger, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scraping: %w", err)
	}

	duration := time.Since(startTime).Truncate(time.Second)
	total, _ := store.Count()
	logger.Info().
		Int64("queries", stats.QueriesDone.Load()).
		Int64("discovered", stats.Discovered.Load()).
		Int64("extracted", stats.Extracted.Load()).
		Int64("skipped", stats.Skipped.Load()).
		Int("stored", total).
		Msg("done")

	summary := fmt.Sprintf(
		"Scrape Complete\n\nQueries:    %d/%d\nDiscovered: %d\nExtracted:  %d\nSkipped:    %d\nStored:     %d\nDuration:   %s\nOutput:     %s\nDatabase:   %s",
		stats.QueriesDone.Load(), len(params.Queries),
		stats.Discovered.Load(), stats.Extracted.Load(), stats.Skipped.Load(),
		total, duration, params.OutputDir, params.DBPath,
	)
	fmt.Fprintln(os.Stderr, summaryStyle.Render(summary))

	return nil
}

// resolveSearchTerms returns the terms to scrape: the -search override when
// present, otherwise the non-empty lines of the input file.
func resolveSearchTerms(search, inputPath string) ([]string, error) {
	if s := strings.TrimSpace(search); s != "" {
		return []string{s}, nil
	}

	f, err := os.Open(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSearchTerms
		}
		return nil, fmt.Errorf("opening %s: %w", inputPath, err)
	}
	defer f.Close()

	var terms []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			terms = append(terms, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", inputPath, err)
	}
	if len(terms) == 0 {
		return nil, ErrNoSearchTerms
	}
	return terms, nil
}

func newLogger(logFile *os.File, debug bool) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(zerolog.MultiLevelWriter(console, logFile)).
		With().Timestamp().Logger()
	if !debug {
		logger = logger.Level(zerolog.InfoLevel)
	}
	return logger
}

func parseNear(near string) (lat, lng float64, err error) {
	parts := strings.Split(near, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid -near %q: want \"lat,lng\"", near)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -near latitude %q", parts[0])
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -near longitude %q", parts[1])
	}
	return lat, lng, nil
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
