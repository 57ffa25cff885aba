package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// FetcherWorker proactively fetches and caches remote packs so a session
// started right after a resume upload does not wait on the generator.
type FetcherWorker struct {
	sequencer *Sequencer
	queue     <-chan Request
	logger    zerolog.Logger
	timeout   time.Duration
}

func NewFetcherWorker(sequencer *Sequencer, queue <-chan Request, logger zerolog.Logger, timeout time.Duration) *FetcherWorker {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &FetcherWorker{
		sequencer: sequencer,
		queue:     queue,
		logger:    logger.With().Str("component", "question_fetcher").Logger(),
		timeout:   timeout,
	}
}

// Run blocks until ctx is cancelled or the queue is closed.
func (w *FetcherWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("question fetcher stopping")
			return ctx.Err()
		case req, ok := <-w.queue:
			if !ok {
				return nil
			}
			w.handle(ctx, req)
		}
	}
}

func (w *FetcherWorker) handle(ctx context.Context, req Request) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.sequencer.Prefetch(ctx, req); err != nil {
		w.logger.Warn().Err(err).Str("role", req.Role).Str("stack", req.Stack).Msg("prefetch failed")
	}
}

// Enqueuer offers prefetch requests without blocking the caller.
type Enqueuer chan Request

// Enqueue drops the request when the queue is full.
func (e Enqueuer) Enqueue(req Request) bool {
	select {
	case e <- req:
		return true
	default:
		return false
	}
}
