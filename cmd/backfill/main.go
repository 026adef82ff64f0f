package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/fortuna/totals/internal/backfill"
	"github.com/fortuna/totals/internal/config"
	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/store"
	"github.com/fortuna/totals/internal/store/repository"
)

const (
	appName    = "totals-backfill"
	appVersion = "1.0.0"
)

func main() {
	log.Printf("=== %s v%s ===", appName, appVersion)

	var (
		configPath = flag.String("config", os.Getenv("TOTALS_CONFIG"), "Path to YAML config file")
		dsn        = flag.String("dsn", "", "Postgres DSN (overrides config)")
		season     = flag.String("season", "", "Season to import (e.g., 2024-25)")
		file       = flag.String("file", "", "Season JSON file (defaults to <datasets.dir>/<season>.json)")
		dryRun     = flag.Bool("dry-run", false, "Dry run (validate only, do not write to DB)")
		verbose    = flag.Bool("verbose", false, "Log every imported match")
	)

	flag.Parse()

	if *season == "" {
		log.Fatalf("Specify --season")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dsn != "" {
		cfg.Postgres.DSN = *dsn
	}

	spec, err := backfill.Request{Season: *season, Path: *file, DryRun: *dryRun}.
		Spec(dataset.NewFileSource(cfg.Datasets.Dir))
	if err != nil {
		log.Fatalf("build spec: %v", err)
	}

	reporter := &consoleReporter{dryRun: *dryRun, verbose: *verbose}

	if *dryRun {
		if _, err := backfill.NewRunner(nil).Run(context.Background(), spec, reporter); err != nil {
			log.Fatalf("validation failed: %v", err)
		}
		log.Println("✓ Dry run completed successfully")
		return
	}

	ctx := context.Background()
	db, err := store.NewDatabase(cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	runs := backfill.NewRepository(db)
	run, err := runs.CreateRun(ctx, spec, backfill.RunStatusRunning)
	if err != nil {
		log.Fatalf("record run: %v", err)
	}

	imported, runErr := backfill.NewRunner(repository.NewMatchRepository(db)).Run(ctx, spec, reporter)
	if err := runs.Finish(ctx, run.RunID, imported, runErr); err != nil {
		log.Printf("⚠️  %v", err)
	}
	if runErr != nil {
		log.Fatalf("backfill failed: %v", runErr)
	}

	log.Printf("✓ Backfill %s completed successfully", run.RunID)
}

type consoleReporter struct {
	dryRun  bool
	verbose bool
}

func (c *consoleReporter) OnJobStart(spec backfill.JobSpec) {
	log.Printf("Importing %s from %s (dry_run=%v)", spec.Season, spec.SourcePath, c.dryRun)
}

func (c *consoleReporter) OnDateStart(date time.Time, index int, total int) {
	label := "undated"
	if !date.IsZero() {
		label = date.Format("2006-01-02")
	}
	log.Printf("[%d/%d] %s", index+1, total, label)
}

func (c *consoleReporter) OnMatchProcessed(matchID string) {
	if c.verbose {
		log.Printf("Processed match %s", matchID)
	}
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	log.Printf("Progress: %s (%d/%d)", message, current, total)
}

func (c *consoleReporter) OnJobComplete(imported int) {
	log.Printf("Job complete: %d matches", imported)
}

func (c *consoleReporter) OnJobError(err error) {
	log.Printf("Job error: %v", err)
}
