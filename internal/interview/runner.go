package interview

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	"github.com/gokatarajesh/mock-interview/internal/logging"
	"github.com/gokatarajesh/mock-interview/internal/metrics"
)

// ErrRunnerStopped is returned when the event loop is no longer running.
var ErrRunnerStopped = errors.New("session runner stopped")

// Notifier receives commands that clients should see: chat turns, recorded
// answers and the display notices.
type Notifier interface {
	Notify(cmd Command)
}

// ResultRecorder publishes finished candidates to the scoreboard.
type ResultRecorder interface {
	Record(ctx context.Context, candidateID, name string, finalScore int) error
}

// SignalSource is the timer's outbound channel.
type SignalSource interface {
	C() <-chan Signal
}

type request interface {
	serve(ctx context.Context, r *Runner)
}

type switchRequest struct {
	candidateID string
	reply       chan error
}

type snapshotRequest struct {
	reply chan Snapshot
}

// Runner is the single cooperative consumer of session events. All
// transitions happen on its goroutine, in arrival order.
type Runner struct {
	machine  *Machine
	signals  SignalSource
	store    candidate.Store
	notifier Notifier
	results  ResultRecorder
	logger   zerolog.Logger

	events   chan Event
	requests chan request
	stopped  chan struct{}
}

// RunnerOptions holds optional collaborators.
type RunnerOptions struct {
	Notifier  Notifier
	Results   ResultRecorder
	QueueSize int
}

func NewRunner(machine *Machine, signals SignalSource, store candidate.Store, opts RunnerOptions, logger zerolog.Logger) *Runner {
	size := opts.QueueSize
	if size <= 0 {
		size = 64
	}
	return &Runner{
		machine:  machine,
		signals:  signals,
		store:    store,
		notifier: opts.Notifier,
		results:  opts.Results,
		logger:   logger.With().Str("component", "session_runner").Logger(),
		events:   make(chan Event, size),
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Run restores the persisted active candidate, then processes events until
// ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)
	defer r.machine.timer.Cancel()

	r.restore(ctx)
	r.logger.Info().Msg("session runner started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("session runner stopping")
			return ctx.Err()
		case ev := <-r.events:
			r.dispatch(ctx, ev)
		case sig := <-r.signals.C():
			if sig.Expired {
				r.dispatch(ctx, TimerExpired{Generation: sig.Generation})
			} else {
				r.dispatch(ctx, TimerTick{Generation: sig.Generation, Remaining: sig.Remaining})
			}
		case req := <-r.requests:
			req.serve(ctx, r)
		}
	}
}

// Send queues an event for the loop.
func (r *Runner) Send(ctx context.Context, ev Event) error {
	select {
	case r.events <- ev:
		return nil
	case <-r.stopped:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Switch loads candidateID from the store and makes it active.
func (r *Runner) Switch(ctx context.Context, candidateID string) error {
	req := switchRequest{candidateID: candidateID, reply: make(chan error, 1)}
	if err := r.submit(ctx, req); err != nil {
		return err
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the live session view.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	req := snapshotRequest{reply: make(chan Snapshot, 1)}
	if err := r.submit(ctx, req); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-req.reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (r *Runner) submit(ctx context.Context, req request) error {
	select {
	case r.requests <- req:
		return nil
	case <-r.stopped:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s switchRequest) serve(ctx context.Context, r *Runner) {
	c, err := r.store.GetCandidate(ctx, s.candidateID)
	if err != nil {
		s.reply <- fmt.Errorf("load candidate %s: %w", s.candidateID, err)
		return
	}
	r.dispatch(ctx, Activate{Candidate: c})
	s.reply <- nil
}

func (s snapshotRequest) serve(_ context.Context, r *Runner) {
	s.reply <- r.machine.Snapshot()
}

func (r *Runner) restore(ctx context.Context) {
	c, err := r.store.GetActiveCandidate(ctx)
	if err != nil {
		if !errors.Is(err, candidate.ErrNoActiveCandidate) && !errors.Is(err, candidate.ErrNotFound) {
			r.logger.Warn().Err(err).Msg("restore active candidate failed")
		}
		return
	}
	log := logging.ForCandidate(r.logger, c.ID)
	log.Info().Msg("restoring active candidate")
	r.dispatch(ctx, Activate{Candidate: c})
}

func (r *Runner) dispatch(ctx context.Context, ev Event) {
	for _, cmd := range r.machine.Handle(ctx, ev) {
		r.apply(ctx, cmd)
	}
}

func (r *Runner) apply(ctx context.Context, cmd Command) {
	var (
		err  error
		name string
	)

	switch c := cmd.(type) {
	case RecordQuestionSet:
		name = "record_question_set"
		err = r.store.RecordQuestionSet(ctx, c.CandidateID, c.Questions, c.StartedAt)
	case RecordAnswer:
		name = "record_answer"
		err = r.store.RecordAnswer(ctx, c.CandidateID, c.Index, c.Answer, c.TotalScore)
		if errors.Is(err, candidate.ErrAnswerOutOfOrder) {
			metrics.DroppedAnswers.WithLabelValues(DropOutOfOrder).Inc()
		}
	case UpdateField:
		name = "update_field"
		err = r.store.UpdateCandidateFields(ctx, c.CandidateID, candidate.FieldUpdate{Field: c.Field, Value: c.Value})
	case SetStatus:
		name = "set_status"
		err = r.store.SetStatus(ctx, c.CandidateID, c.Status, c.At)
	case SetSummary:
		name = "set_summary"
		err = r.store.SetSummary(ctx, c.CandidateID, c.Summary, c.FinalScore)
	case AppendChat:
		name = "append_chat"
		err = r.store.AppendChatTurn(ctx, c.CandidateID, c.Turn)
	case SetActive:
		name = "set_active"
		err = r.store.SetActiveCandidate(ctx, c.CandidateID)
	case RecordResult:
		name = "record_result"
		if r.results != nil {
			err = r.results.Record(ctx, c.CandidateID, c.Name, c.FinalScore)
		}
	}

	if err != nil {
		metrics.StoreErrors.WithLabelValues(name).Inc()
		r.logger.Error().Err(err).Str("command", name).Msg("command failed")
	}

	switch cmd.(type) {
	case AppendChat, RecordAnswer, TickNotice, PhaseNotice, CompletionNotice:
		if r.notifier != nil {
			r.notifier.Notify(cmd)
		}
	}
}
