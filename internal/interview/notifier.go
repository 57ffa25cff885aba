package interview

import (
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/question"
	ws "github.com/gokatarajesh/mock-interview/pkg/http/ws"
)

// Broadcaster fans one message out to every client.
type Broadcaster interface {
	Broadcast(msg ws.Message) error
}

// HubNotifier turns machine commands into WebSocket messages.
type HubNotifier struct {
	hub    Broadcaster
	logger zerolog.Logger
}

var _ Notifier = (*HubNotifier)(nil)

func NewHubNotifier(hub Broadcaster, logger zerolog.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger.With().Str("component", "session_notifier").Logger()}
}

// Notify broadcasts cmd; commands without a client representation are ignored.
func (n *HubNotifier) Notify(cmd Command) {
	msgType, payload, ok := encodeCommand(cmd)
	if !ok {
		return
	}
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		n.logger.Error().Err(err).Str("type", msgType).Msg("encode notification failed")
		return
	}
	// Per-connection failures are logged by the hub.
	_ = n.hub.Broadcast(msg)
}

func encodeCommand(cmd Command) (string, any, bool) {
	switch c := cmd.(type) {
	case AppendChat:
		return ws.TypeChatTurn, ws.ChatTurnPayload{
			CandidateID: c.CandidateID,
			Origin:      string(c.Turn.Origin),
			Text:        c.Turn.Text,
			Timestamp:   c.Turn.Timestamp,
		}, true
	case TickNotice:
		return ws.TypeTimerTick, ws.TimerTickPayload{
			CandidateID:      c.CandidateID,
			QuestionIndex:    c.QuestionIndex,
			RemainingSeconds: c.Remaining,
		}, true
	case PhaseNotice:
		return ws.TypePhaseChanged, ws.PhaseChangedPayload{
			CandidateID:      c.CandidateID,
			Phase:            string(c.Phase),
			QuestionIndex:    c.QuestionIndex,
			RemainingSeconds: c.Remaining,
			Question:         questionPayload(c.Question),
		}, true
	case RecordAnswer:
		return ws.TypeAnswerRecorded, ws.AnswerRecordedPayload{
			CandidateID:      c.CandidateID,
			QuestionIndex:    c.Index,
			Score:            c.Answer.Score,
			Feedback:         c.Answer.Feedback,
			TimeSpentSeconds: c.Answer.TimeSpentSeconds,
			TotalScore:       c.TotalScore,
			Trigger:          c.Trigger,
		}, true
	case CompletionNotice:
		return ws.TypeSessionComplete, ws.SessionCompletePayload{
			CandidateID: c.CandidateID,
			FinalScore:  c.FinalScore,
			Summary:     c.Summary,
		}, true
	default:
		return "", nil, false
	}
}

func questionPayload(q *question.Question) *ws.QuestionPayload {
	if q == nil {
		return nil
	}
	return &ws.QuestionPayload{ID: q.ID, Text: q.Text, Difficulty: q.Difficulty, TimeLimit: q.TimeLimit}
}
