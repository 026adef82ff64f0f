package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fortuna/totals/internal/config"
	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/service"
	"github.com/fortuna/totals/internal/strategy"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("TOTALS_CONFIG"), "Path to YAML config file")
		season     = flag.String("season", "", "Season to replay (defaults to the configured default season)")
		file       = flag.String("file", "", "Season JSON file (overrides -season and the dataset dir)")
		strat      = flag.String("strategy", string(strategy.KindBlindOver), "Strategy: blind_over, blind_under, reversion, team_trends, high_efficiency")
		wager      = flag.Float64("wager", strategy.DefaultWager, "Stake per bet")
		margin     = flag.Float64("margin", strategy.DefaultMargin, "Margin for reversion and team_trends")
		threshold  = flag.Float64("threshold", strategy.DefaultEfficiencyThreshold, "Combined FG% threshold for high_efficiency")
		team       = flag.String("team", "", "Only replay matches involving this team")
		from       = flag.String("from", "", "First date (YYYY-MM-DD)")
		to         = flag.String("to", "", "Last date, inclusive (YYYY-MM-DD)")
		summary    = flag.Bool("summary", false, "Print the result without the bet log")
	)
	flag.Parse()

	// logs go to stderr so stdout stays valid JSON
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dir := cfg.Datasets.Dir
	name := *season
	if name == "" {
		name = cfg.Datasets.DefaultSeason
	}
	if *file != "" {
		dir = filepath.Dir(*file)
		name = strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
	}

	req := strategy.Request{
		Strategy: *strat,
		Wager:    *wager,
		Team:     *team,
		From:     *from,
		To:       *to,
		Season:   name,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "margin":
			req.Margin = margin
		case "threshold":
			req.Threshold = threshold
		}
	})

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)
	seasons := service.NewSeasonService(dataset.NewFileSource(dir), name, logger)
	analytics := service.NewAnalyticsService(seasons, service.Options{Logger: logger})

	result, err := analytics.Backtest(context.Background(), req)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}
	if *summary {
		result.Log = nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}
