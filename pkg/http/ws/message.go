package ws

import (
	"encoding/json"
	"time"
)

// MessageType constants for the session WebSocket protocol.
const (
	// Client -> Server
	TypeChatMessage     = "chat_message"
	TypeSubmitAnswer    = "submit_answer"
	TypeStartSession    = "start_session"
	TypePauseSession    = "pause_session"
	TypeResumeSession   = "resume_session"
	TypeSwitchCandidate = "switch_candidate"
	TypeRequestSnapshot = "request_snapshot"

	// Server -> Client
	TypeChatTurn         = "chat_turn"
	TypeTimerTick        = "timer_tick"
	TypePhaseChanged     = "phase_changed"
	TypeAnswerRecorded   = "answer_recorded"
	TypeSessionComplete  = "session_complete"
	TypeSessionSnapshot  = "session_snapshot"
	TypeScoreboardUpdate = "scoreboard_update"
	TypeError            = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Client Messages (incoming)

// ChatMessagePayload is a typed chat line. While a question is shown the
// client sends the displayed QuestionIndex so the line counts as its answer.
type ChatMessagePayload struct {
	Text          string `json:"text"`
	QuestionIndex *int   `json:"question_index,omitempty"`
}

// SubmitAnswerPayload answers the question at QuestionIndex, which is
// required; a submission for an already resolved question is dropped.
type SubmitAnswerPayload struct {
	Text          string `json:"text"`
	QuestionIndex *int   `json:"question_index,omitempty"`
}

type SwitchCandidatePayload struct {
	CandidateID string `json:"candidate_id"`
}

// Server Messages (outgoing)

type ChatTurnPayload struct {
	CandidateID string    `json:"candidate_id"`
	Origin      string    `json:"origin"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

type TimerTickPayload struct {
	CandidateID      string `json:"candidate_id"`
	QuestionIndex    int    `json:"question_index"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type PhaseChangedPayload struct {
	CandidateID      string           `json:"candidate_id"`
	Phase            string           `json:"phase"`
	QuestionIndex    int              `json:"question_index"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Question         *QuestionPayload `json:"question,omitempty"`
}

type QuestionPayload struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
	TimeLimit  int    `json:"time_limit"`
}

type AnswerRecordedPayload struct {
	CandidateID      string `json:"candidate_id"`
	QuestionIndex    int    `json:"question_index"`
	Score            int    `json:"score"`
	Feedback         string `json:"feedback"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	TotalScore       int    `json:"total_score"`
	Trigger          string `json:"trigger"`
}

type SessionCompletePayload struct {
	CandidateID string `json:"candidate_id"`
	FinalScore  int    `json:"final_score"`
	Summary     string `json:"summary"`
}

type ScoreboardUpdatePayload struct {
	Top         []ScoreboardEntry `json:"top"`
	CandidateID string            `json:"candidate_id,omitempty"`
}

type ScoreboardEntry struct {
	Rank        int    `json:"rank"`
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	FinalScore  int    `json:"final_score"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
