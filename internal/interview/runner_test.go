package interview

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	"github.com/gokatarajesh/mock-interview/internal/interview/scoring"
)

type recordingNotifier struct {
	mu   sync.Mutex
	cmds []Command
}

func (n *recordingNotifier) Notify(cmd Command) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cmds = append(n.cmds, cmd)
}

func (n *recordingNotifier) all() []Command {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Command(nil), n.cmds...)
}

type recordingResults struct {
	mu  sync.Mutex
	got []RecordResult
}

func (r *recordingResults) Record(_ context.Context, candidateID, name string, finalScore int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, RecordResult{CandidateID: candidateID, Name: name, FinalScore: finalScore})
	return nil
}

type runnerFixture struct {
	runner   *Runner
	store    *candidate.MemoryStore
	clock    *fakeClock
	notifier *recordingNotifier
	results  *recordingResults
	ctx      context.Context
	start    func()
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	clock := &fakeClock{}
	timer := NewTimer(time.Second, clock.factory)
	machine := NewMachine(
		MachineConfig{StartCommand: "start"},
		&stubQuestions{},
		scoring.NewEvaluator(scoring.DefaultScoringConfig(), nil, time.Second, logger),
		scoring.NewAggregator(nil, time.Second, logger),
		timer,
		logger,
	)
	f := &runnerFixture{
		store:    candidate.NewMemoryStore(),
		clock:    clock,
		notifier: &recordingNotifier{},
		results:  &recordingResults{},
	}
	f.runner = NewRunner(machine, timer, f.store, RunnerOptions{Notifier: f.notifier, Results: f.results}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	f.ctx = ctx
	done := make(chan error, 1)
	started := false
	f.start = func() {
		started = true
		go func() { done <- f.runner.Run(ctx) }()
	}
	t.Cleanup(func() {
		cancel()
		if !started {
			return
		}
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Error("runner did not stop")
		}
	})
	return f
}

func (f *runnerFixture) create(t *testing.T, name string) *candidate.Candidate {
	t.Helper()
	c, err := f.store.CreateCandidate(context.Background(), candidate.NewCandidate{Name: name, Email: "dev@example.com", Phone: "555 010 9999"})
	require.NoError(t, err)
	return c
}

func (f *runnerFixture) waitPhase(t *testing.T, phase Phase) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		s, err := f.runner.Snapshot(f.ctx)
		if err != nil {
			return false
		}
		snap = s
		return s.Phase == phase
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func (f *runnerFixture) fire(t *testing.T) {
	t.Helper()
	select {
	case f.clock.latest().c <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("tick source not listening")
	}
}

func (f *runnerFixture) answers(t *testing.T, id string) []candidate.Answer {
	t.Helper()
	c, err := f.store.GetCandidate(context.Background(), id)
	require.NoError(t, err)
	return c.Answers
}

func TestRunnerRestoresActiveCandidate(t *testing.T) {
	f := newRunnerFixture(t)
	c := f.create(t, "Grace Hopper")
	require.NoError(t, f.store.SetActiveCandidate(context.Background(), c.ID))

	f.start()
	snap := f.waitPhase(t, PhaseIdle)
	assert.Equal(t, c.ID, snap.CandidateID)
	assert.NotEmpty(t, snap.Transcript)
}

func TestRunnerPersistsSessionProgress(t *testing.T) {
	f := newRunnerFixture(t)
	c := f.create(t, "Grace Hopper")
	f.start()

	require.NoError(t, f.runner.Switch(f.ctx, c.ID))
	active, err := f.store.GetActiveCandidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.ID, active.ID)

	require.NoError(t, f.runner.Send(f.ctx, UserTurn{Text: "start"}))
	f.waitPhase(t, PhaseAskingQuestion)

	stored, err := f.store.GetCandidate(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 6)
	assert.NotNil(t, stored.StartedAt)

	f.fire(t)
	assert.Eventually(t, func() bool {
		for _, cmd := range f.notifier.all() {
			if n, ok := cmd.(TickNotice); ok && n.Remaining == 19 {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, f.runner.Send(f.ctx, SubmitAnswer{Text: "first", QuestionIndex: 0}))
	require.NoError(t, f.runner.Send(f.ctx, SubmitAnswer{Text: "duplicate", QuestionIndex: 0}))
	require.NoError(t, f.runner.Send(f.ctx, SubmitAnswer{Text: "second", QuestionIndex: 1}))

	require.Eventually(t, func() bool { return len(f.answers(t, c.ID)) == 2 }, 2*time.Second, 5*time.Millisecond)
	got := f.answers(t, c.ID)
	assert.Equal(t, "first", got[0].AnswerText)
	assert.Equal(t, 1, got[0].TimeSpentSeconds)
	assert.Equal(t, "second", got[1].AnswerText)

	stored, err = f.store.GetCandidate(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, got[0].Score+got[1].Score, stored.TotalScore)
}

func TestRunnerExpiryAutoSubmits(t *testing.T) {
	f := newRunnerFixture(t)
	c := f.create(t, "Grace Hopper")
	f.start()

	require.NoError(t, f.runner.Switch(f.ctx, c.ID))
	require.NoError(t, f.runner.Send(f.ctx, StartSession{}))
	f.waitPhase(t, PhaseAskingQuestion)

	first := f.clock.latest()
	for i := 0; i < 20; i++ {
		select {
		case first.c <- time.Now():
		case <-time.After(time.Second):
			t.Fatalf("tick %d not consumed", i)
		}
	}

	require.Eventually(t, func() bool { return len(f.answers(t, c.ID)) == 1 }, 2*time.Second, 5*time.Millisecond)
	ans := f.answers(t, c.ID)[0]
	assert.Equal(t, 0, ans.Score)
	assert.Equal(t, 20, ans.TimeSpentSeconds)

	snap := f.waitPhase(t, PhaseAskingQuestion)
	assert.Equal(t, 1, snap.QuestionIndex)
	assert.Equal(t, 2, f.clock.count())

	var expiries int
	for _, cmd := range f.notifier.all() {
		if r, ok := cmd.(RecordAnswer); ok && r.Trigger == TriggerExpiry {
			expiries++
		}
	}
	assert.Equal(t, 1, expiries)
}

func TestRunnerSwitchPausesInterruptedCandidate(t *testing.T) {
	f := newRunnerFixture(t)
	first := f.create(t, "Grace Hopper")
	second := f.create(t, "Alan Turing")
	f.start()

	require.NoError(t, f.runner.Switch(f.ctx, first.ID))
	require.NoError(t, f.runner.Send(f.ctx, StartSession{}))
	f.waitPhase(t, PhaseAskingQuestion)

	require.NoError(t, f.runner.Switch(f.ctx, second.ID))
	snap := f.waitPhase(t, PhaseIdle)
	assert.Equal(t, second.ID, snap.CandidateID)

	stored, err := f.store.GetCandidate(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.StatusPaused, stored.Status)
	assert.Len(t, stored.Questions, 6)
}

func TestRunnerSwitchUnknownCandidate(t *testing.T) {
	f := newRunnerFixture(t)
	f.start()

	err := f.runner.Switch(f.ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, candidate.ErrNotFound))

	snap, err := f.runner.Snapshot(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseNone, snap.Phase)
}

func TestRunnerSendAfterStop(t *testing.T) {
	f := newRunnerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.runner.Run(ctx) }()
	cancel()
	<-done

	err := f.runner.Send(context.Background(), StartSession{})
	assert.True(t, errors.Is(err, ErrRunnerStopped) || err == nil)
	_, err = f.runner.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrRunnerStopped)
}
