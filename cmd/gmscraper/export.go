package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shayan4Ii/google-map-scraper/internal/engine/storage"
	"github.com/shayan4Ii/google-map-scraper/internal/export"
)

func runExport(args []string) error {
	var dbPath, outputDir, format string

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "", "Path to .db file (required)")
	fs.StringVar(&outputDir, "output", "", "Output directory (default: same dir as db)")
	fs.StringVar(&format, "format", "csv", "Export format: csv or xlsx")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gmscraper export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gmscraper export -db ./output/gmscraper_20260823_120000.db\n")
		fmt.Fprintf(os.Stderr, "  gmscraper export -db data.db -format xlsx -output ./results\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unsupported format: %s (want csv or xlsx)", format)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(dbPath)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening db: %w", err)
	}
	defer store.Close()

	queries, err := store.Queries()
	if err != nil {
		return fmt.Errorf("listing queries: %w", err)
	}
	if len(queries) == 0 {
		return fmt.Errorf("no businesses found in database")
	}

	exported := 0
	for _, query := range queries {
		businesses, err := store.ByQuery(query)
		if err != nil {
			return fmt.Errorf("loading %q: %w", query, err)
		}

		path := filepath.Join(outputDir, export.BaseName(query)+"."+format)
		switch format {
		case "csv":
			err = export.WriteCSV(path, businesses)
		case "xlsx":
			err = export.WriteXLSX(path, businesses)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Exported %d businesses to %s\n", len(businesses), path)
		exported += len(businesses)
	}

	fmt.Fprintf(os.Stderr, "Done: %d businesses across %d terms\n", exported, len(queries))
	return nil
}
