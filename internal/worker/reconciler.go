package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	applog "masarif/internal/log"
)

// ErrReconcilerRunning is returned by Start on a reconciler that is already running.
var ErrReconcilerRunning = errors.New("reconciler is already running")

// Reconciler periodically rewrites the sheet from the stored log so rows
// lost to dropped events or manual edits are restored.
type Reconciler struct {
	worker   *ExportWorker
	interval time.Duration
	logger   *applog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	runs    int
}

// NewReconciler returns a reconciler exporting every interval. interval
// must be positive.
func NewReconciler(w *ExportWorker, interval time.Duration, logger *applog.Logger) *Reconciler {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Reconciler{
		worker:   w,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Start begins the export loop.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrReconcilerRunning
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	r.logger.InfoContext(ctx, "Reconciler started", "interval", r.interval)
	return nil
}

// Stop signals the loop and waits for the current export to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		r.logger.InfoContext(ctx, "Reconciler stopped gracefully", "runs", r.completedRuns())
		return nil
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Reconciler stop timed out")
		return ctx.Err()
	}
}

func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// completedRuns counts finished export cycles, failed ones included.
func (r *Reconciler) completedRuns() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	if err := r.worker.StartupExport(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Periodic export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
	}
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
}
