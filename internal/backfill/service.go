package backfill

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/store"
	"github.com/fortuna/totals/internal/store/repository"
)

// Request represents an import invocation request.
type Request struct {
	Season string
	Path   string
	DryRun bool
}

// Spec resolves the request against the dataset directory. An empty path
// means <dir>/<season>.json.
func (r Request) Spec(files *dataset.FileSource) (JobSpec, error) {
	season := strings.TrimSpace(r.Season)
	if season == "" {
		return JobSpec{}, fmt.Errorf("season is required")
	}
	if strings.ContainsAny(season, `/\`) {
		return JobSpec{}, fmt.Errorf("invalid season %q", season)
	}

	path := strings.TrimSpace(r.Path)
	if path == "" {
		if files == nil {
			return JobSpec{}, fmt.Errorf("no dataset directory configured for season %s", season)
		}
		path = files.Path(season)
	}

	return JobSpec{Season: season, SourcePath: path, DryRun: r.DryRun}, nil
}

// ImportHook is called after a season has been written to the store
type ImportHook func(ctx context.Context, season string)

// Service coordinates run persistence, execution, and status reporting.
type Service struct {
	repo   *Repository
	runner *Runner
	files  *dataset.FileSource

	historyLimit int

	mu         sync.Mutex
	onImported ImportHook

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService constructs a Service. Call Start to launch workers.
func NewService(db *store.Database, files *dataset.FileSource, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[backfill] ", log.LstdFlags)
	}

	return &Service{
		repo:         NewRepository(db),
		runner:       NewRunner(repository.NewMatchRepository(db)),
		files:        files,
		historyLimit: 10,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// OnImported registers a hook run after each successful, non-dry import.
func (s *Service) OnImported(hook ImportHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onImported = hook
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckRuns(s.ctx); err != nil {
		s.logger.Printf("failed to reset runs: %v", err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops workers and waits for completion.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new queued run from the provided request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Run, error) {
	spec, err := req.Spec(s.files)
	if err != nil {
		return nil, err
	}

	run, err := s.repo.CreateRun(ctx, spec, RunStatusQueued)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("Queued import %s for %s (%s)", run.RunID, run.Season, run.SourcePath)
	return run, nil
}

// GetStatus returns the currently running import plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveRun(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentRuns(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveRun: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			run, err := s.repo.MarkNextRunRunning(s.ctx)
			if err != nil {
				s.logger.Printf("claim run error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if run == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					continue
				}
			}

			s.executeRun(run)
		}
	}
}

func (s *Service) executeRun(run *Run) {
	spec := JobSpec{Season: run.Season, SourcePath: run.SourcePath, DryRun: run.DryRun}
	reporter := &runReporter{ctx: s.ctx, repo: s.repo, runID: run.RunID, logger: s.logger}

	imported, err := s.runner.Run(s.ctx, spec, reporter)
	if ferr := s.repo.Finish(s.ctx, run.RunID, imported, err); ferr != nil {
		s.logger.Printf("⚠️  %v", ferr)
	}
	if err != nil {
		s.logger.Printf("❌ Import %s failed: %v", run.RunID, err)
		return
	}

	s.logger.Printf("✓ Import %s complete: %d matches for %s", run.RunID, imported, run.Season)
	if spec.DryRun {
		return
	}

	s.mu.Lock()
	hook := s.onImported
	s.mu.Unlock()
	if hook != nil {
		hook(s.ctx, run.Season)
	}
}

type runReporter struct {
	ctx    context.Context
	repo   *Repository
	runID  string
	logger *log.Logger
}

func (r *runReporter) OnJobStart(spec JobSpec) {
	r.logger.Printf("Import %s starting: %s from %s", r.runID, spec.Season, spec.SourcePath)
}

func (r *runReporter) OnDateStart(date time.Time, index int, total int) {}

func (r *runReporter) OnMatchProcessed(matchID string) {}

func (r *runReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.runID, current)
}

func (r *runReporter) OnJobComplete(imported int) {}

func (r *runReporter) OnJobError(err error) {
	r.logger.Printf("Import %s error: %v", r.runID, err)
}
