package scoreboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
)

// CandidateLister is the read side of the candidate store.
type CandidateLister interface {
	ListCandidates(ctx context.Context, opts candidate.ListOptions) ([]candidate.Summary, error)
}

// ReconcileWorker periodically copies completed candidates from the store
// into Redis so the scoreboard survives a Redis flush.
type ReconcileWorker struct {
	svc      *Service
	store    CandidateLister
	logger   zerolog.Logger
	interval time.Duration
}

func NewReconcileWorker(svc *Service, store CandidateLister, interval time.Duration, logger zerolog.Logger) *ReconcileWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReconcileWorker{
		svc:      svc,
		store:    store,
		logger:   logger.With().Str("component", "scoreboard_reconciler").Logger(),
		interval: interval,
	}
}

// Run blocks until context cancellation.
func (w *ReconcileWorker) Run(ctx context.Context) error {
	if w.svc == nil || w.store == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ReconcileWorker) tick(ctx context.Context) {
	n, err := w.Reconcile(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("reconcile failed")
		return
	}
	w.logger.Debug().Int("entries", n).Msg("scoreboard reconciled")
}

// Reconcile upserts the store's top completed candidates and returns how
// many were written.
func (w *ReconcileWorker) Reconcile(ctx context.Context) (int, error) {
	rows, err := w.store.ListCandidates(ctx, candidate.ListOptions{SortBy: candidate.SortByScore, Limit: w.svc.topN})
	if err != nil {
		return 0, err
	}

	written := 0
	for _, row := range rows {
		if row.Status != candidate.StatusCompleted || row.FinalScore == nil {
			continue
		}
		if err := w.svc.upsert(ctx, Entry{CandidateID: row.ID, Name: row.Name, FinalScore: *row.FinalScore}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
