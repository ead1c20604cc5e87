package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/campus_escrow/internal/core/domain"
	portssvc "github.com/SscSPs/campus_escrow/internal/core/ports/services"
	"github.com/SscSPs/campus_escrow/internal/middleware"
	"github.com/SscSPs/campus_escrow/internal/utils"
)

const sweepLockName = "escrow:auto-release-sweep"

// AutoReleaseWorker runs the auto-release sweep on a fixed interval. It is a coarse
// polling loop; per-record correctness comes from the ledger's atomic release.
type AutoReleaseWorker struct {
	ledger    portssvc.EscrowWriterSvc
	locker    portssvc.SweepLocker
	events    portssvc.EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	threshold time.Duration
	lockTTL   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerOption configures an AutoReleaseWorker
type WorkerOption func(*AutoReleaseWorker)

// WithSweepLocker makes the worker skip a pass while another instance holds the lock
func WithSweepLocker(locker portssvc.SweepLocker, ttl time.Duration) WorkerOption {
	return func(w *AutoReleaseWorker) {
		w.locker = locker
		w.lockTTL = ttl
	}
}

// WithWorkerEvents publishes a summary event for passes that released something
func WithWorkerEvents(events portssvc.EventPublisher) WorkerOption {
	return func(w *AutoReleaseWorker) {
		w.events = events
	}
}

// NewAutoReleaseWorker creates a worker that sweeps every interval for escrows held longer than threshold.
func NewAutoReleaseWorker(ledger portssvc.EscrowWriterSvc, interval, threshold time.Duration, logger *slog.Logger, options ...WorkerOption) *AutoReleaseWorker {
	w := &AutoReleaseWorker{
		ledger:    ledger,
		logger:    logger.With(slog.String("worker", "auto_release")),
		interval:  interval,
		threshold: threshold,
		lockTTL:   interval,
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Start launches the sweep loop. A pass runs immediately, then every interval.
func (w *AutoReleaseWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(middleware.WithLogger(ctx, w.logger))
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx, w.done)
}

// Stop cancels the loop and waits for the current pass to finish its in-flight release.
func (w *AutoReleaseWorker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *AutoReleaseWorker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Auto-release worker started", slog.Duration("interval", w.interval), slog.Duration("threshold", w.threshold))

	w.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			w.logger.Info("Auto-release worker stopped")
			return
		}
	}
}

// RunOnce performs a single sweep pass. It returns nil when the pass was skipped
// because another instance holds the sweep lock.
func (w *AutoReleaseWorker) RunOnce(ctx context.Context) *domain.SweepResult {
	if w.locker != nil {
		unlock, ok, err := w.locker.TryLock(ctx, sweepLockName, w.lockTTL)
		if err != nil {
			// Lock backend down: sweeping anyway is safe, releases are atomic per record.
			w.logger.Warn("Sweep lock unavailable, sweeping without it", slog.String("error", err.Error()))
		} else if !ok {
			w.logger.Debug("Sweep lock held by another instance, skipping pass")
			return nil
		} else {
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					w.logger.Warn("Failed to release sweep lock", slog.String("error", err.Error()))
				}
			}()
		}
	}

	result, err := w.ledger.SweepAutoRelease(ctx, w.threshold)
	if errors.Is(err, context.Canceled) {
		released := 0
		if result != nil {
			released = result.Released
		}
		w.logger.Info("Auto-release sweep interrupted by shutdown", slog.Int("released", released))
		return result
	}
	if err != nil {
		w.logger.Error("Auto-release sweep failed", slog.String("error", err.Error()))
		return result
	}

	if w.events != nil && result.Released > 0 {
		w.events.Enqueue(domain.SystemActorAutoRelease, utils.EventSweepCompleted, map[string]any{
			"released": result.Released,
			"failed":   result.Failed,
			"skipped":  result.Skipped,
		})
	}
	return result
}
