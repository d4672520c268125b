// Command normalize-planned rebuilds the planned override file from a
// spreadsheet: product names are cleaned to Title Case, duplicates are
// summed, and every product is written as active.
package main

import (
	"flag"
	"log/slog"
	"os"
	"sort"

	"github.com/MelParker66/flowerama-vd2026/internal/config"
	"github.com/MelParker66/flowerama-vd2026/internal/domain"
	"github.com/MelParker66/flowerama-vd2026/internal/ingest"
	"github.com/MelParker66/flowerama-vd2026/internal/repository"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	in := flag.String("in", cfg.PlannedXLSX, "spreadsheet to read (column A planned, column B product)")
	out := flag.String("out", cfg.OverridesFile, "override file to write")
	dryRun := flag.Bool("dry-run", false, "print the result without writing")
	flag.Parse()

	if _, err := os.Stat(*in); err != nil {
		logger.Error("spreadsheet not found", "path", *in, "err", err)
		os.Exit(1)
	}
	rows, sheet, err := ingest.ReadRows(*in)
	if err != nil {
		logger.Error("failed to read spreadsheet", "path", *in, "err", err)
		os.Exit(1)
	}

	planned := ingest.NormalizedPlanned(rows)
	logger.Info("products normalized", "sheet", sheet, "rows", len(rows), "products", len(planned))

	names := make([]string, 0, len(planned))
	for name := range planned {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i == 10 && !*dryRun {
			break
		}
		logger.Info("product", "name", name, "planned", planned[name])
	}

	if *dryRun {
		return
	}

	entries := make(map[string]domain.PlannedEntry, len(planned))
	for name, qty := range planned {
		entries[name] = domain.PlannedEntry{Planned: qty, Active: true}
	}
	store := repository.NewOverrideStore(*out, logger)
	store.ReplaceAll(entries)
	if err := store.Save(); err != nil {
		os.Exit(1)
	}
	logger.Info("override file written", "path", store.Path(), "products", store.Len())
}
