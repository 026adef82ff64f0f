package backfill_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortuna/totals/internal/backfill"
	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/store"
)

const seasonJSON = `[
  {"match_id":"m2","date":"12.01.2025","home_team":"Miami Heat","away_team":"New York Knicks","home_score":"101","away_score":"99","odds":{"total_line":"210.5"}},
  {"match_id":"m1","date":"10.01.2025","home_team":"Boston Celtics","away_team":"Miami Heat","home_score":"112","away_score":"108","odds":{"total_line":"224.5"}},
  {"match_id":"m3","date":"12.01.2025 19:30","home_team":"Boston Celtics","away_team":"New York Knicks","home_score":"120","away_score":"121","odds":{"total_line":"228"}}
]`

type memoryWriter struct {
	seasons map[string][]store.RawMatch
	err     error
}

func (w *memoryWriter) UpsertSeason(ctx context.Context, season string, matches []store.RawMatch) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.seasons == nil {
		w.seasons = map[string][]store.RawMatch{}
	}
	w.seasons[season] = matches
	return len(matches), nil
}

type recordingReporter struct {
	dates     []string
	processed []string
	completed int
	errs      []error
}

func (r *recordingReporter) OnJobStart(spec backfill.JobSpec) {}

func (r *recordingReporter) OnDateStart(date time.Time, index int, total int) {
	r.dates = append(r.dates, date.Format("2006-01-02"))
}

func (r *recordingReporter) OnMatchProcessed(matchID string) {
	r.processed = append(r.processed, matchID)
}

func (r *recordingReporter) OnProgress(message string, current int, total int) {}

func (r *recordingReporter) OnJobComplete(imported int) { r.completed = imported }

func (r *recordingReporter) OnJobError(err error) { r.errs = append(r.errs, err) }

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "2024-25.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunnerImportsSeason(t *testing.T) {
	writer := &memoryWriter{}
	reporter := &recordingReporter{}
	runner := backfill.NewRunner(writer)

	spec := backfill.JobSpec{Season: "2024-25", SourcePath: writeFile(t, seasonJSON)}
	imported, err := runner.Run(context.Background(), spec, reporter)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if imported != 3 || reporter.completed != 3 {
		t.Errorf("imported = %d, completed = %d, want 3", imported, reporter.completed)
	}

	wantDates := []string{"2025-01-10", "2025-01-12"}
	if len(reporter.dates) != len(wantDates) {
		t.Fatalf("dates = %v, want %v", reporter.dates, wantDates)
	}
	for i, d := range wantDates {
		if reporter.dates[i] != d {
			t.Errorf("date %d = %s, want %s", i, reporter.dates[i], d)
		}
	}

	// file order is kept inside a day and in the stored season
	wantProcessed := []string{"m1", "m2", "m3"}
	for i, id := range wantProcessed {
		if reporter.processed[i] != id {
			t.Errorf("processed[%d] = %s, want %s", i, reporter.processed[i], id)
		}
	}
	stored := writer.seasons["2024-25"]
	if len(stored) != 3 || stored[0].MatchID != "m2" {
		t.Errorf("stored season = %+v", stored)
	}
}

func TestRunnerDryRun(t *testing.T) {
	writer := &memoryWriter{}
	runner := backfill.NewRunner(writer)

	spec := backfill.JobSpec{Season: "2024-25", SourcePath: writeFile(t, seasonJSON), DryRun: true}
	imported, err := runner.Run(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if imported != 3 {
		t.Errorf("validated = %d, want 3", imported)
	}
	if len(writer.seasons) != 0 {
		t.Error("dry run must not write")
	}
}

func TestRunnerErrors(t *testing.T) {
	tests := []struct {
		name   string
		spec   func(t *testing.T) backfill.JobSpec
		writer *memoryWriter
		is     error
	}{
		{
			name: "missing file",
			spec: func(t *testing.T) backfill.JobSpec {
				return backfill.JobSpec{Season: "2024-25", SourcePath: filepath.Join(t.TempDir(), "nope.json")}
			},
			writer: &memoryWriter{},
			is:     dataset.ErrSeasonNotFound,
		},
		{
			name: "missing team",
			spec: func(t *testing.T) backfill.JobSpec {
				body := `[{"match_id":"m1","date":"10.01.2025","home_team":"","away_team":"Heat"}]`
				return backfill.JobSpec{Season: "2024-25", SourcePath: writeFile(t, body)}
			},
			writer: &memoryWriter{},
		},
		{
			name: "no season",
			spec: func(t *testing.T) backfill.JobSpec {
				return backfill.JobSpec{SourcePath: writeFile(t, seasonJSON)}
			},
			writer: &memoryWriter{},
		},
		{
			name: "store failure",
			spec: func(t *testing.T) backfill.JobSpec {
				return backfill.JobSpec{Season: "2024-25", SourcePath: writeFile(t, seasonJSON)}
			},
			writer: &memoryWriter{err: errors.New("connection refused")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reporter := &recordingReporter{}
			_, err := backfill.NewRunner(tt.writer).Run(context.Background(), tt.spec(t), reporter)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
			if len(reporter.errs) != 1 {
				t.Errorf("reported %d errors, want 1", len(reporter.errs))
			}
		})
	}
}

func TestRequestSpec(t *testing.T) {
	files := dataset.NewFileSource("data")

	spec, err := backfill.Request{Season: "2024-25"}.Spec(files)
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}
	if spec.SourcePath != filepath.Join("data", "2024-25.json") {
		t.Errorf("path = %s", spec.SourcePath)
	}

	spec, err = backfill.Request{Season: "2024-25", Path: "/tmp/s.json", DryRun: true}.Spec(nil)
	if err != nil || spec.SourcePath != "/tmp/s.json" || !spec.DryRun {
		t.Errorf("explicit path spec = %+v, %v", spec, err)
	}

	for _, season := range []string{"", "../x", "a/b"} {
		if _, err := (backfill.Request{Season: season}).Spec(files); err == nil {
			t.Errorf("season %q: expected error", season)
		}
	}
	if _, err := (backfill.Request{Season: "2024-25"}).Spec(nil); err == nil {
		t.Error("expected error without a dataset dir or path")
	}
}
