package interview

import (
	"time"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	"github.com/gokatarajesh/mock-interview/internal/question"
)

// Phase is the orchestrator's current discrete state. It is never persisted.
type Phase string

const (
	PhaseNone              Phase = "none"
	PhaseCollectingProfile Phase = "collecting_profile"
	PhaseIdle              Phase = "idle"
	PhaseAskingQuestion    Phase = "asking_question"
	PhasePaused            Phase = "paused"
	PhaseFinished          Phase = "finished"
)

// Answer triggers.
const (
	TriggerSubmit = "submit"
	TriggerExpiry = "expiry"
)

// Event is an inbound input to the machine.
type Event interface{ event() }

// Activate makes c the active candidate, discarding all transient state.
type Activate struct{ Candidate *candidate.Candidate }

// UserTurn is free text typed by the candidate. While a question is open the
// turn only counts as an answer when QuestionIndex names the question the
// client displayed.
type UserTurn struct {
	Text          string
	QuestionIndex *int
}

// SubmitAnswer resolves the question at QuestionIndex. A submission for any
// other index is dropped.
type SubmitAnswer struct {
	Text          string
	QuestionIndex int
}

// StartSession is equivalent to typing the start command.
type StartSession struct{}

// PauseSession freezes the countdown.
type PauseSession struct{}

// ResumeSession restarts a frozen countdown.
type ResumeSession struct{}

// TimerTick carries the remaining seconds from the countdown.
type TimerTick struct {
	Generation uint64
	Remaining  int
}

// TimerExpired fires once when the countdown reaches zero.
type TimerExpired struct{ Generation uint64 }

func (Activate) event()      {}
func (UserTurn) event()      {}
func (SubmitAnswer) event()  {}
func (StartSession) event()  {}
func (PauseSession) event()  {}
func (ResumeSession) event() {}
func (TimerTick) event()     {}
func (TimerExpired) event()  {}

// Command is an outbound side effect requested by the machine.
type Command interface{ command() }

type RecordQuestionSet struct {
	CandidateID string
	Questions   []question.Question
	StartedAt   time.Time
}

type RecordAnswer struct {
	CandidateID string
	Index       int
	Answer      candidate.Answer
	TotalScore  int
	Trigger     string
}

type UpdateField struct {
	CandidateID string
	Field       string
	Value       string
}

type SetStatus struct {
	CandidateID string
	Status      candidate.Status
	At          time.Time
}

type SetSummary struct {
	CandidateID string
	Summary     string
	FinalScore  int
}

type AppendChat struct {
	CandidateID string
	Turn        candidate.ChatTurn
}

type SetActive struct {
	CandidateID string
}

// RecordResult publishes a finished candidate to the scoreboard.
type RecordResult struct {
	CandidateID string
	Name        string
	FinalScore  int
}

// TickNotice is a display-only countdown update.
type TickNotice struct {
	CandidateID   string
	QuestionIndex int
	Remaining     int
}

// PhaseNotice reports a phase change; Question is set while asking.
type PhaseNotice struct {
	CandidateID   string
	Phase         Phase
	QuestionIndex int
	Question      *question.Question
	Remaining     int
}

// CompletionNotice reports a finished interview.
type CompletionNotice struct {
	CandidateID string
	FinalScore  int
	Summary     string
}

func (RecordQuestionSet) command() {}
func (RecordAnswer) command()      {}
func (UpdateField) command()       {}
func (SetStatus) command()         {}
func (SetSummary) command()        {}
func (AppendChat) command()        {}
func (SetActive) command()         {}
func (RecordResult) command()      {}
func (TickNotice) command()        {}
func (PhaseNotice) command()       {}
func (CompletionNotice) command()  {}
