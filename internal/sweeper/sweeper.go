// Package sweeper runs the periodic completion sweep that moves
// confirmed bookings past their end time to completed and settles
// their session credits.
package sweeper

import (
	"context"
	"time"

	"coachbook/internal/bookings/service"
	"coachbook/pkg/logger"
)

// Completer is the slice of the booking service the sweeper needs.
type Completer interface {
	CompleteDue(ctx context.Context) (service.SweepSummary, error)
}

type Worker struct {
	completer Completer
	interval  time.Duration
	log       *logger.Logger
}

func NewWorker(completer Completer, interval time.Duration, log *logger.Logger) *Worker {
	return &Worker{
		completer: completer,
		interval:  interval,
		log:       log,
	}
}

// Run sweeps once immediately, then on every tick until ctx is
// cancelled. Sweep errors are logged and the loop keeps going; a
// transient database outage must not kill the worker.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("Completion sweeper started", "interval", w.interval.String())

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Completion sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	summary, err := w.completer.CompleteDue(ctx)
	if err != nil {
		w.log.Error("Completion sweep failed", "error", err)
		return
	}

	if summary.Scanned == 0 {
		return
	}

	w.log.Info("Completion sweep finished",
		"scanned", summary.Scanned,
		"completed", summary.Completed,
		"failed", summary.Failed,
	)
}
