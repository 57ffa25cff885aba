package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	"github.com/gokatarajesh/mock-interview/internal/interview/scoring"
	"github.com/gokatarajesh/mock-interview/internal/metrics"
	"github.com/gokatarajesh/mock-interview/internal/question"
)

const autoSubmitted = "(No answer, auto-submitted)"

// Reasons an answer or expiry is dropped instead of recorded.
const (
	DropAlreadyRecorded = "already_recorded"
	DropStaleExpiry     = "stale_expiry"
	DropStaleIndex      = "stale_index"
	DropUnpinned        = "unpinned_turn"
	DropNotAsking       = "not_asking"
	DropOutOfOrder      = "store_out_of_order"
)

// QuestionSource builds the question set when a session starts.
type QuestionSource interface {
	Generate(ctx context.Context, req question.Request) []question.Question
}

// AnswerScorer grades one resolved question.
type AnswerScorer interface {
	Evaluate(ctx context.Context, q question.Question, answer string, timeSpentSeconds int) scoring.Evaluation
}

// SessionSummarizer computes the final score and summary.
type SessionSummarizer interface {
	Aggregate(ctx context.Context, name string, answers []candidate.Answer) scoring.Result
}

// Countdown is the timer surface the machine drives.
type Countdown interface {
	Arm(limit int) uint64
	Pause() int
	Resume()
	Cancel()
}

// MachineConfig holds session defaults.
type MachineConfig struct {
	StartCommand string
	Request      question.Request
}

// Snapshot is a read-only view of the live session.
type Snapshot struct {
	CandidateID   string               `json:"candidate_id,omitempty"`
	Phase         Phase                `json:"phase"`
	QuestionIndex int                  `json:"question_index"`
	QuestionCount int                  `json:"question_count"`
	Question      *question.Question   `json:"question,omitempty"`
	Remaining     int                  `json:"remaining_seconds"`
	TotalScore    int                  `json:"total_score"`
	MissingFields []string             `json:"missing_fields,omitempty"`
	Transcript    []candidate.ChatTurn `json:"transcript"`
}

// Machine is the session orchestrator. Handle performs one transition per
// event and describes every persistence side effect as a Command. It is not
// safe for concurrent use; the Runner serializes access.
type Machine struct {
	cfg       MachineConfig
	questions QuestionSource
	scorer    AnswerScorer
	summary   SessionSummarizer
	timer     Countdown
	now       func() time.Time
	logger    zerolog.Logger

	cand       *candidate.Candidate
	phase      Phase
	index      int
	remaining  int
	generation uint64
}

func NewMachine(cfg MachineConfig, questions QuestionSource, scorer AnswerScorer, summary SessionSummarizer, timer Countdown, logger zerolog.Logger) *Machine {
	if strings.TrimSpace(cfg.StartCommand) == "" {
		cfg.StartCommand = "start"
	}
	return &Machine{
		cfg:       cfg,
		questions: questions,
		scorer:    scorer,
		summary:   summary,
		timer:     timer,
		now:       time.Now,
		logger:    logger.With().Str("component", "session_machine").Logger(),
		phase:     PhaseNone,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Candidate returns a copy of the active candidate, or nil.
func (m *Machine) Candidate() *candidate.Candidate { return m.cand.Clone() }

// Snapshot returns the live session view.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{Phase: m.phase, QuestionIndex: m.index, Remaining: m.remaining}
	if m.cand == nil {
		return s
	}
	s.CandidateID = m.cand.ID
	s.QuestionCount = len(m.cand.Questions)
	s.TotalScore = m.cand.TotalScore
	s.MissingFields = MissingFields(m.cand.Profile())
	s.Transcript = append([]candidate.ChatTurn(nil), m.cand.Chat...)
	if q := m.currentQuestion(); q != nil && (m.phase == PhaseAskingQuestion || m.phase == PhasePaused) {
		s.Question = q
	}
	return s
}

// Handle applies one event and returns the side effects to perform.
func (m *Machine) Handle(ctx context.Context, ev Event) []Command {
	if a, ok := ev.(Activate); ok {
		return m.activate(a.Candidate)
	}
	if m.cand == nil {
		m.logger.Debug().Str("event", fmt.Sprintf("%T", ev)).Msg("no active candidate, event ignored")
		return nil
	}

	switch e := ev.(type) {
	case UserTurn:
		return m.userTurn(ctx, e)
	case SubmitAnswer:
		return m.submit(ctx, e)
	case StartSession:
		return m.start(ctx)
	case PauseSession:
		return m.pause()
	case ResumeSession:
		return m.resume()
	case TimerTick:
		return m.tick(e)
	case TimerExpired:
		return m.expire(ctx, e)
	default:
		m.logger.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("unknown event")
		return nil
	}
}

func (m *Machine) activate(c *candidate.Candidate) []Command {
	var cmds []Command

	if prev := m.cand; prev != nil && (m.phase == PhaseAskingQuestion || m.phase == PhasePaused) {
		prev.Status = candidate.StatusPaused
		cmds = append(cmds, SetStatus{CandidateID: prev.ID, Status: candidate.StatusPaused, At: m.now()})
	}

	m.timer.Cancel()
	m.cand = c.Clone()
	m.index = 0
	m.remaining = 0
	m.generation = 0
	m.phase = PhaseNone

	if m.cand == nil {
		return cmds
	}
	cmds = append(cmds, SetActive{CandidateID: m.cand.ID})

	if m.cand.Status == candidate.StatusCompleted {
		m.index = len(m.cand.Answers)
		return append(cmds, m.enter(PhaseFinished)...)
	}

	if m.resumable() || len(m.cand.Chat) > 0 {
		cmds = append(cmds, m.say(fmt.Sprintf("Welcome back! Type %q to begin/resume the interview, or fill any missing details.", m.cfg.StartCommand)))
	} else {
		cmds = append(cmds, m.say(m.greeting()))
	}

	if missing := NextMissing(m.cand.Profile()); missing != "" {
		cmds = append(cmds, m.say(PromptFor(missing)))
		return append(cmds, m.enter(PhaseCollectingProfile)...)
	}
	return append(cmds, m.enter(PhaseIdle)...)
}

func (m *Machine) userTurn(ctx context.Context, e UserTurn) []Command {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return nil
	}

	switch m.phase {
	case PhaseAskingQuestion:
		if e.QuestionIndex == nil {
			m.drop(DropUnpinned)
			return []Command{m.hear(text)}
		}
		if *e.QuestionIndex != m.index {
			m.drop(DropStaleIndex)
			return nil
		}
		return m.resolve(ctx, m.index, text, TriggerSubmit)
	case PhaseCollectingProfile, PhaseIdle:
		return m.route(ctx, text)
	default:
		m.logger.Debug().Str("phase", string(m.phase)).Msg("turn logged without transition")
		return []Command{m.hear(text)}
	}
}

// route sends text outside a question through the profile collector, then
// the start command.
func (m *Machine) route(ctx context.Context, text string) []Command {
	cmds := []Command{m.hear(text)}

	if d := Classify(m.cand.Profile(), text); d.Matched {
		m.setField(d.Field, d.Value)
		cmds = append(cmds,
			UpdateField{CandidateID: m.cand.ID, Field: d.Field, Value: d.Value},
			m.say(fmt.Sprintf("Thanks, saved %s as %q.", d.Field, d.Value)),
		)
		if next := NextMissing(m.cand.Profile()); next != "" {
			return append(cmds, m.say(PromptFor(next)))
		}
		cmds = append(cmds, m.say(fmt.Sprintf("All set. Type %q to begin the interview.", m.cfg.StartCommand)))
		return append(cmds, m.enter(PhaseIdle)...)
	}

	if strings.EqualFold(text, m.cfg.StartCommand) {
		return append(cmds, m.start(ctx)...)
	}

	m.logger.Debug().Str("phase", string(m.phase)).Msg("turn matched no classifier")
	return cmds
}

func (m *Machine) start(ctx context.Context) []Command {
	if m.phase != PhaseIdle && m.phase != PhaseCollectingProfile {
		m.logger.Debug().Str("phase", string(m.phase)).Msg("start ignored")
		return nil
	}

	if missing := NextMissing(m.cand.Profile()); missing != "" {
		cmds := []Command{m.say(missingReminder(missing))}
		if m.phase != PhaseCollectingProfile {
			cmds = append(cmds, m.enter(PhaseCollectingProfile)...)
		}
		return cmds
	}

	var cmds []Command
	at := m.now()
	if m.resumable() {
		m.cand.Status = candidate.StatusIncomplete
		cmds = append(cmds,
			SetStatus{CandidateID: m.cand.ID, Status: candidate.StatusIncomplete, At: at},
			m.say(fmt.Sprintf("Resuming interview at question %d/%d.", len(m.cand.Answers)+1, len(m.cand.Questions))),
		)
		return append(cmds, m.ask(len(m.cand.Answers))...)
	}

	qs := m.questions.Generate(ctx, m.cfg.Request)
	m.cand.Questions = qs
	m.cand.Answers = nil
	m.cand.TotalScore = 0
	m.cand.CurrentQuestionIndex = 0
	m.cand.Status = candidate.StatusIncomplete
	m.cand.StartedAt = &at

	cmds = append(cmds,
		RecordQuestionSet{CandidateID: m.cand.ID, Questions: qs, StartedAt: at},
		m.say(fmt.Sprintf("Starting your interview: %d questions, 2 easy, 2 medium and 2 hard. Good luck!", len(qs))),
	)
	return append(cmds, m.ask(0)...)
}

func (m *Machine) ask(index int) []Command {
	q := m.cand.Questions[index]
	m.index = index
	m.cand.CurrentQuestionIndex = index
	m.generation = m.timer.Arm(q.TimeLimit)
	m.remaining = q.TimeLimit

	cmds := []Command{m.say(fmt.Sprintf("Question %d/%d (%s): %s", index+1, len(m.cand.Questions), strings.ToUpper(q.Difficulty), q.Text))}
	return append(cmds, m.enter(PhaseAskingQuestion)...)
}

func (m *Machine) submit(ctx context.Context, e SubmitAnswer) []Command {
	if m.phase != PhaseAskingQuestion {
		m.drop(DropNotAsking)
		return nil
	}
	if e.QuestionIndex != m.index {
		m.drop(DropStaleIndex)
		return nil
	}
	return m.resolve(ctx, m.index, strings.TrimSpace(e.Text), TriggerSubmit)
}

func (m *Machine) tick(e TimerTick) []Command {
	if m.phase != PhaseAskingQuestion || e.Generation != m.generation {
		return nil
	}
	m.remaining = e.Remaining
	return []Command{TickNotice{CandidateID: m.cand.ID, QuestionIndex: m.index, Remaining: e.Remaining}}
}

func (m *Machine) expire(ctx context.Context, e TimerExpired) []Command {
	if m.phase != PhaseAskingQuestion || e.Generation != m.generation {
		m.drop(DropStaleExpiry)
		return nil
	}
	m.remaining = 0
	return m.resolve(ctx, m.index, "", TriggerExpiry)
}

// resolve records exactly one answer for index and advances.
func (m *Machine) resolve(ctx context.Context, index int, text string, trigger string) []Command {
	if index != len(m.cand.Answers) || index >= len(m.cand.Questions) {
		m.drop(DropAlreadyRecorded)
		return nil
	}

	q := m.cand.Questions[index]
	spent := q.TimeLimit - m.remaining
	if spent < 0 {
		spent = 0
	}
	m.timer.Cancel()

	var cmds []Command
	if trigger == TriggerExpiry {
		cmds = append(cmds, m.hear(autoSubmitted))
	} else {
		cmds = append(cmds, m.hear(text))
	}

	eval := m.scorer.Evaluate(ctx, q, text, spent)
	answer := candidate.Answer{
		QuestionID:       q.ID,
		QuestionText:     q.Text,
		AnswerText:       text,
		Difficulty:       q.Difficulty,
		Score:            eval.Score,
		TimeSpentSeconds: spent,
		Feedback:         eval.Feedback,
	}
	m.cand.Answers = append(m.cand.Answers, answer)
	m.cand.TotalScore += answer.Score
	m.cand.CurrentQuestionIndex = len(m.cand.Answers)
	metrics.AnswersRecorded.WithLabelValues(trigger).Inc()

	verdict := fmt.Sprintf("Score: %d/100 - %s", answer.Score, answer.Feedback)
	if trigger == TriggerExpiry {
		verdict = "Time's up. " + verdict
	}
	cmds = append(cmds,
		RecordAnswer{CandidateID: m.cand.ID, Index: index, Answer: answer, TotalScore: m.cand.TotalScore, Trigger: trigger},
		m.say(verdict),
	)

	if next := index + 1; next < len(m.cand.Questions) {
		return append(cmds, m.ask(next)...)
	}
	return append(cmds, m.finish(ctx)...)
}

func (m *Machine) finish(ctx context.Context) []Command {
	m.timer.Cancel()
	m.remaining = 0
	m.index = len(m.cand.Answers)

	res := m.summary.Aggregate(ctx, m.cand.Name, m.cand.Answers)
	at := m.now()
	m.cand.Summary = res.Summary
	m.cand.FinalScore = &res.FinalScore
	m.cand.Status = candidate.StatusCompleted
	m.cand.CompletedAt = &at

	metrics.SessionsCompleted.Inc()
	metrics.FinalScores.Observe(float64(res.FinalScore))

	cmds := []Command{
		SetSummary{CandidateID: m.cand.ID, Summary: res.Summary, FinalScore: res.FinalScore},
		SetStatus{CandidateID: m.cand.ID, Status: candidate.StatusCompleted, At: at},
		RecordResult{CandidateID: m.cand.ID, Name: m.cand.Name, FinalScore: res.FinalScore},
		m.say(fmt.Sprintf("Interview complete! Final score: %d/100. Summary saved.", res.FinalScore)),
		CompletionNotice{CandidateID: m.cand.ID, FinalScore: res.FinalScore, Summary: res.Summary},
	}
	return append(cmds, m.enter(PhaseFinished)...)
}

func (m *Machine) pause() []Command {
	if m.phase != PhaseAskingQuestion {
		return nil
	}
	m.remaining = m.timer.Pause()
	m.cand.Status = candidate.StatusPaused
	cmds := []Command{SetStatus{CandidateID: m.cand.ID, Status: candidate.StatusPaused, At: m.now()}}
	return append(cmds, m.enter(PhasePaused)...)
}

func (m *Machine) resume() []Command {
	if m.phase != PhasePaused {
		return nil
	}
	m.timer.Resume()
	m.cand.Status = candidate.StatusIncomplete
	cmds := []Command{SetStatus{CandidateID: m.cand.ID, Status: candidate.StatusIncomplete, At: m.now()}}
	return append(cmds, m.enter(PhaseAskingQuestion)...)
}

func (m *Machine) enter(p Phase) []Command {
	m.phase = p
	metrics.PhaseTransitions.WithLabelValues(string(p)).Inc()
	n := PhaseNotice{CandidateID: m.cand.ID, Phase: p, QuestionIndex: m.index, Remaining: m.remaining}
	if p == PhaseAskingQuestion || p == PhasePaused {
		n.Question = m.currentQuestion()
	}
	return []Command{n}
}

// resumable reports whether the candidate has a started, unfinished set.
func (m *Machine) resumable() bool {
	return len(m.cand.Questions) == question.SetSize &&
		len(m.cand.Answers) < len(m.cand.Questions) &&
		m.cand.StartedAt != nil
}

func (m *Machine) currentQuestion() *question.Question {
	if m.cand == nil || m.index < 0 || m.index >= len(m.cand.Questions) {
		return nil
	}
	q := m.cand.Questions[m.index]
	return &q
}

func (m *Machine) greeting() string {
	name := m.cand.Name
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s, I'm your interview assistant. I'll ask 6 questions (2 easy, 2 medium, 2 hard). Ready when you are. Type %q to begin or upload/verify your resume details first.", name, m.cfg.StartCommand)
}

func (m *Machine) say(text string) Command {
	return m.chat(candidate.OriginBot, text)
}

func (m *Machine) hear(text string) Command {
	return m.chat(candidate.OriginUser, text)
}

func (m *Machine) chat(origin candidate.Origin, text string) Command {
	turn := candidate.ChatTurn{Origin: origin, Text: text, Timestamp: m.now().UTC()}
	m.cand.Chat = append(m.cand.Chat, turn)
	return AppendChat{CandidateID: m.cand.ID, Turn: turn}
}

func (m *Machine) setField(field, value string) {
	switch field {
	case candidate.FieldName:
		m.cand.Name = value
	case candidate.FieldEmail:
		m.cand.Email = value
	case candidate.FieldPhone:
		m.cand.Phone = value
	}
}

func (m *Machine) drop(reason string) {
	metrics.DroppedAnswers.WithLabelValues(reason).Inc()
	m.logger.Debug().Str("reason", reason).Int("index", m.index).Msg("answer dropped")
}

func missingReminder(field string) string {
	switch field {
	case candidate.FieldName:
		return "Please provide your full name."
	case candidate.FieldEmail:
		return "Please provide your email."
	default:
		return "Please provide your phone number."
	}
}
