package backfill

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/stats"
	"github.com/fortuna/totals/internal/store"
)

// SeasonWriter persists one season's raw matches
type SeasonWriter interface {
	UpsertSeason(ctx context.Context, season string, matches []store.RawMatch) (int, error)
}

// Runner executes import specs against a season store.
type Runner struct {
	writer SeasonWriter
	read   func(path string) ([]store.RawMatch, error)
}

// NewRunner constructs a runner reading season JSON files from disk.
func NewRunner(writer SeasonWriter) *Runner {
	return &Runner{
		writer: writer,
		read:   dataset.ReadFile,
	}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
// Returns the number of matches written (or validated, for a dry run).
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (int, error) {
	if reporter == nil {
		reporter = NopReporter{}
	}
	reporter.OnJobStart(spec)

	if strings.TrimSpace(spec.Season) == "" {
		err := fmt.Errorf("season is required")
		reporter.OnJobError(err)
		return 0, err
	}

	matches, err := r.read(spec.SourcePath)
	if err != nil {
		reporter.OnJobError(err)
		return 0, err
	}

	days := groupByDate(matches)
	processed := 0
	for idx, day := range days {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		reporter.OnDateStart(day.date, idx, len(days))
		for _, i := range day.indexes {
			m := matches[i]
			if strings.TrimSpace(m.HomeTeam) == "" || strings.TrimSpace(m.AwayTeam) == "" {
				err := fmt.Errorf("match %d (%s) is missing team names", i, m.MatchID)
				reporter.OnJobError(err)
				return processed, err
			}
			processed++
			reporter.OnMatchProcessed(m.MatchID)
		}
		reporter.OnProgress(fmt.Sprintf("Validated %d matches", processed), processed, len(matches))
	}

	if spec.DryRun {
		reporter.OnProgress("Dry-run mode: no data will be written", processed, len(matches))
		reporter.OnJobComplete(processed)
		return processed, nil
	}

	written, err := r.writer.UpsertSeason(ctx, spec.Season, matches)
	if err != nil {
		err = fmt.Errorf("writing season %s: %w", spec.Season, err)
		reporter.OnJobError(err)
		return 0, err
	}

	reporter.OnJobComplete(written)
	return written, nil
}

// matchDay is the set of match indexes sharing a calendar date
type matchDay struct {
	date    time.Time
	indexes []int
}

// groupByDate buckets matches by parsed date, oldest first. Undated matches
// share the zero date and come first.
func groupByDate(matches []store.RawMatch) []matchDay {
	byDate := make(map[time.Time]*matchDay)
	for i, m := range matches {
		date := stats.ParseMatchDate(m.Date)
		day, ok := byDate[date]
		if !ok {
			day = &matchDay{date: date}
			byDate[date] = day
		}
		day.indexes = append(day.indexes, i)
	}

	days := make([]matchDay, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].date.Before(days[j].date)
	})
	return days
}
