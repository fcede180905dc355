package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "scrape":
			if err := runScrape(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "export":
			if err := runExport(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "version":
			fmt.Println("gmscraper " + version)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	printUsage()
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `gmscraper - Google Maps search scraper

Usage:
  gmscraper scrape [flags]  Scrape search terms into CSV/XLSX and a run db
  gmscraper export [flags]  Re-export an existing run db
  gmscraper version         Show version

Run 'gmscraper scrape --help' or 'gmscraper export --help' for flags.
`)
}
