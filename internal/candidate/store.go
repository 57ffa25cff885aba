package candidate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gokatarajesh/mock-interview/internal/question"
)

var (
	// ErrNotFound is returned when no candidate matches the id.
	ErrNotFound = errors.New("candidate not found")
	// ErrNoActiveCandidate is returned when no candidate is selected.
	ErrNoActiveCandidate = errors.New("no active candidate")
	// ErrAnswerOutOfOrder is returned when an answer does not extend the list.
	ErrAnswerOutOfOrder = errors.New("answer index does not match answer count")
	// ErrUnknownField is returned for profile fields outside name, email, phone.
	ErrUnknownField = errors.New("unknown profile field")
)

// Store persists candidates. Writes are commands, reads are queries.
type Store interface {
	CreateCandidate(ctx context.Context, in NewCandidate) (*Candidate, error)
	UpdateCandidateFields(ctx context.Context, id string, updates ...FieldUpdate) error
	RecordQuestionSet(ctx context.Context, id string, questions []question.Question, startedAt time.Time) error
	// RecordAnswer appends an answer at index and sets the running total.
	// It returns ErrAnswerOutOfOrder when index != len(answers).
	RecordAnswer(ctx context.Context, id string, index int, answer Answer, totalScore int) error
	SetStatus(ctx context.Context, id string, status Status, at time.Time) error
	SetSummary(ctx context.Context, id string, summary string, finalScore int) error
	AppendChatTurn(ctx context.Context, id string, turn ChatTurn) error
	SetActiveCandidate(ctx context.Context, id string) error

	GetCandidate(ctx context.Context, id string) (*Candidate, error)
	GetActiveCandidate(ctx context.Context) (*Candidate, error)
	ListCandidates(ctx context.Context, opts ListOptions) ([]Summary, error)
}

// ValidField reports whether field is a collectable profile field.
func ValidField(field string) bool {
	switch field {
	case FieldName, FieldEmail, FieldPhone:
		return true
	default:
		return false
	}
}

func validateUpdates(updates []FieldUpdate) error {
	for _, u := range updates {
		if !ValidField(u.Field) {
			return fmt.Errorf("%w: %q", ErrUnknownField, u.Field)
		}
	}
	return nil
}
