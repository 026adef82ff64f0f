package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/totals/internal/ingest/odds"
	"github.com/fortuna/totals/internal/strategy"
)

// OddsRefresher fetches a fresh live odds snapshot
type OddsRefresher interface {
	Refresh(ctx context.Context) ([]odds.LiveGame, error)
}

// SignalService evaluates and publishes live signals
type SignalService interface {
	LiveSignals(ctx context.Context, games []odds.LiveGame) ([]strategy.LiveSignal, error)
	PublishLiveSignals(ctx context.Context, signals []strategy.LiveSignal)
}

// Broadcaster pushes live signals to connected subscribers
type Broadcaster interface {
	BroadcastLiveSignals(signals []strategy.LiveSignal)
}

// Orchestrator polls live odds and fans the evaluated signals out
type Orchestrator struct {
	odds        OddsRefresher
	signals     SignalService
	broadcaster Broadcaster
	config      *Config
	cancel      context.CancelFunc

	mu          sync.Mutex
	lastPollAt  time.Time
	lastSignals int
	lastErr     error
}

// Config holds scheduler configuration
type Config struct {
	LivePollInterval  time.Duration // Default: 5m
	EnableLivePolling bool          // Default: true
	MaxRetries        int           // Default: 3
	RetryDelay        time.Duration // Default: 5s

	// Polling slows down by SlowdownDelay after this many failed polls in a row
	MaxConsecutiveErrors int
	SlowdownDelay        time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		LivePollInterval:     5 * time.Minute,
		EnableLivePolling:    true,
		MaxRetries:           3,
		RetryDelay:           5 * time.Second,
		MaxConsecutiveErrors: 5,
		SlowdownDelay:        20 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator; broadcaster may be nil
func NewOrchestrator(refresher OddsRefresher, signals SignalService, broadcaster Broadcaster, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}

	return &Orchestrator{
		odds:        refresher,
		signals:     signals,
		broadcaster: broadcaster,
		config:      config,
	}
}

// Start runs the scheduled tasks until ctx is cancelled or Stop is called
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("╔════════════════════════════════════════╗")
	log.Println("║   Totals Scheduler Orchestrator        ║")
	log.Println("╚════════════════════════════════════════╝")
	log.Printf("Live polling: %v (interval: %v)", o.config.EnableLivePolling, o.config.LivePollInterval)

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	var wg sync.WaitGroup
	if o.config.EnableLivePolling {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.runLivePolling(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	log.Println("Scheduler orchestrator stopping...")
}

// runLivePolling polls for live odds on the configured interval
func (o *Orchestrator) runLivePolling(ctx context.Context) {
	log.Printf("→ Live odds polling started (interval: %v)", o.config.LivePollInterval)

	ticker := time.NewTicker(o.config.LivePollInterval)
	defer ticker.Stop()

	consecutiveErrors := 0

	// Run immediately on start
	o.pollAndTrack(ctx, &consecutiveErrors)

	for {
		select {
		case <-ctx.Done():
			log.Println("→ Live odds polling stopped")
			return
		case <-ticker.C:
			o.pollAndTrack(ctx, &consecutiveErrors)
		}
	}
}

func (o *Orchestrator) pollAndTrack(ctx context.Context, consecutiveErrors *int) {
	if err := o.Poll(ctx); err == nil {
		*consecutiveErrors = 0
		return
	}
	if ctx.Err() != nil {
		return
	}

	*consecutiveErrors++
	log.Printf("  ❌ Live poll failed. Consecutive errors: %d/%d", *consecutiveErrors, o.config.MaxConsecutiveErrors)

	if o.config.MaxConsecutiveErrors > 0 && *consecutiveErrors >= o.config.MaxConsecutiveErrors {
		log.Printf("  ⚠️  High error rate detected. Slowing polling by %v...", o.config.SlowdownDelay)
		select {
		case <-ctx.Done():
		case <-time.After(o.config.SlowdownDelay):
		}
	}
}

// Poll fetches live odds with retries, evaluates them, then publishes and
// broadcasts the signals
func (o *Orchestrator) Poll(ctx context.Context) error {
	var games []odds.LiveGame
	var err error

	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		games, err = o.odds.Refresh(ctx)
		if err == nil {
			break
		}

		log.Printf("  ⚠️  Polling attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)
		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.config.RetryDelay):
			}
		}
	}
	if err != nil {
		o.record(0, err)
		return fmt.Errorf("all %d attempts failed: %w", o.config.MaxRetries, err)
	}

	signals, err := o.signals.LiveSignals(ctx, games)
	if err != nil {
		o.record(0, err)
		return fmt.Errorf("evaluating live signals: %w", err)
	}

	o.signals.PublishLiveSignals(ctx, signals)
	if o.broadcaster != nil {
		o.broadcaster.BroadcastLiveSignals(signals)
	}

	o.record(len(signals), nil)
	log.Printf("  ✓ Evaluated %d live games, %d with totals quotes", len(games), len(signals))
	return nil
}

func (o *Orchestrator) record(signals int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastPollAt = time.Now()
	o.lastErr = err
	if err == nil {
		o.lastSignals = signals
	}
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	log.Println("Stopping scheduler orchestrator...")

	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	log.Println("✓ Scheduler orchestrator stopped")
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := map[string]interface{}{
		"live_polling_enabled": o.config.EnableLivePolling,
		"live_poll_interval":   o.config.LivePollInterval.String(),
		"last_signal_count":    o.lastSignals,
	}
	if !o.lastPollAt.IsZero() {
		status["last_poll_at"] = o.lastPollAt
	}
	if o.lastErr != nil {
		status["last_error"] = o.lastErr.Error()
	}
	return status
}
