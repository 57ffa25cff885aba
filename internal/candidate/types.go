package candidate

import (
	"time"

	"github.com/gokatarajesh/mock-interview/internal/question"
)

// Status is the persisted lifecycle state of a candidate's interview.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

// Origin identifies who authored a chat turn.
type Origin string

const (
	OriginBot  Origin = "bot"
	OriginUser Origin = "user"
)

// Profile fields collected before an interview can start.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// Candidate is one interviewee and everything recorded about their session.
type Candidate struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	Email                string              `json:"email"`
	Phone                string              `json:"phone"`
	ResumeText           string              `json:"resume_text,omitempty"`
	Questions            []question.Question `json:"questions"`
	Answers              []Answer            `json:"answers"`
	CurrentQuestionIndex int                 `json:"current_question_index"`
	TotalScore           int                 `json:"total_score"`
	FinalScore           *int                `json:"final_score,omitempty"`
	Status               Status              `json:"status"`
	StartedAt            *time.Time          `json:"started_at,omitempty"`
	CompletedAt          *time.Time          `json:"completed_at,omitempty"`
	Summary              string              `json:"summary,omitempty"`
	Chat                 []ChatTurn          `json:"chat"`
	CreatedAt            time.Time           `json:"created_at"`
}

// Answer is one scored response. Answers are append-only and their order
// matches the question order.
type Answer struct {
	QuestionID       string `json:"question_id"`
	QuestionText     string `json:"question_text"`
	AnswerText       string `json:"answer_text"`
	Difficulty       string `json:"difficulty"`
	Score            int    `json:"score"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	Feedback         string `json:"feedback"`
}

// ChatTurn is one message in the session transcript.
type ChatTurn struct {
	Origin    Origin    `json:"origin"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Profile is the subset of a candidate the collector inspects.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Profile returns the candidate's contact fields.
func (c *Candidate) Profile() Profile {
	return Profile{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// Clone returns a deep copy so callers can't mutate stored slices.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	out := *c
	out.Questions = append([]question.Question(nil), c.Questions...)
	out.Answers = append([]Answer(nil), c.Answers...)
	out.Chat = append([]ChatTurn(nil), c.Chat...)
	if c.FinalScore != nil {
		v := *c.FinalScore
		out.FinalScore = &v
	}
	if c.StartedAt != nil {
		v := *c.StartedAt
		out.StartedAt = &v
	}
	if c.CompletedAt != nil {
		v := *c.CompletedAt
		out.CompletedAt = &v
	}
	return &out
}

// NewCandidate seeds a candidate with whatever profile fields were
// extracted from a resume.
type NewCandidate struct {
	Name       string
	Email      string
	Phone      string
	ResumeText string
}

// FieldUpdate sets a single profile field.
type FieldUpdate struct {
	Field string
	Value string
}

// Sort orders for ListCandidates.
const (
	SortByScore = "score"
	SortByDate  = "date"
	SortByName  = "name"
)

// ListOptions filters and orders the interviewer dashboard list.
type ListOptions struct {
	Query  string
	SortBy string
	Limit  int
}

// Summary is the compact row shown in the dashboard list.
type Summary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Status      Status     `json:"status"`
	FinalScore  *int       `json:"final_score,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToSummary projects a candidate onto a dashboard row.
func (c *Candidate) ToSummary() Summary {
	return Summary{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Status:      c.Status,
		FinalScore:  c.FinalScore,
		Summary:     c.Summary,
		CompletedAt: c.CompletedAt,
		CreatedAt:   c.CreatedAt,
	}
}
