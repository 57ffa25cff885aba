package candidate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/mock-interview/internal/question"
)

const defaultListLimit = 100

// MemoryStore keeps candidates in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]*Candidate
	activeID   string
	now        func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		candidates: make(map[string]*Candidate),
		now:        time.Now,
	}
}

func (s *MemoryStore) CreateCandidate(_ context.Context, in NewCandidate) (*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Candidate{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		ResumeText: in.ResumeText,
		Status:     StatusIncomplete,
		CreatedAt:  s.now().UTC(),
	}
	s.candidates[c.ID] = c
	return c.Clone(), nil
}

func (s *MemoryStore) UpdateCandidateFields(_ context.Context, id string, updates ...FieldUpdate) error {
	if err := validateUpdates(updates); err != nil {
		return err
	}
	return s.mutate(id, func(c *Candidate) error {
		for _, u := range updates {
			switch u.Field {
			case FieldName:
				c.Name = u.Value
			case FieldEmail:
				c.Email = u.Value
			case FieldPhone:
				c.Phone = u.Value
			}
		}
		return nil
	})
}

func (s *MemoryStore) RecordQuestionSet(_ context.Context, id string, questions []question.Question, startedAt time.Time) error {
	return s.mutate(id, func(c *Candidate) error {
		c.Questions = append([]question.Question(nil), questions...)
		c.Answers = nil
		c.CurrentQuestionIndex = 0
		c.TotalScore = 0
		c.FinalScore = nil
		c.Summary = ""
		c.CompletedAt = nil
		at := startedAt.UTC()
		c.StartedAt = &at
		c.Status = StatusIncomplete
		return nil
	})
}

func (s *MemoryStore) RecordAnswer(_ context.Context, id string, index int, answer Answer, totalScore int) error {
	return s.mutate(id, func(c *Candidate) error {
		if index != len(c.Answers) {
			return ErrAnswerOutOfOrder
		}
		c.Answers = append(c.Answers, answer)
		c.TotalScore = totalScore
		c.CurrentQuestionIndex = len(c.Answers)
		return nil
	})
}

func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status, at time.Time) error {
	return s.mutate(id, func(c *Candidate) error {
		c.Status = status
		if status == StatusCompleted {
			t := at.UTC()
			c.CompletedAt = &t
		}
		return nil
	})
}

func (s *MemoryStore) SetSummary(_ context.Context, id string, summary string, finalScore int) error {
	return s.mutate(id, func(c *Candidate) error {
		c.Summary = summary
		score := finalScore
		c.FinalScore = &score
		return nil
	})
}

func (s *MemoryStore) AppendChatTurn(_ context.Context, id string, turn ChatTurn) error {
	return s.mutate(id, func(c *Candidate) error {
		c.Chat = append(c.Chat, turn)
		return nil
	})
}

func (s *MemoryStore) SetActiveCandidate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return ErrNotFound
	}
	s.activeID = id
	return nil
}

func (s *MemoryStore) GetCandidate(_ context.Context, id string) (*Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) GetActiveCandidate(ctx context.Context) (*Candidate, error) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()
	if id == "" {
		return nil, ErrNoActiveCandidate
	}
	return s.GetCandidate(ctx, id)
}

func (s *MemoryStore) ListCandidates(_ context.Context, opts ListOptions) ([]Summary, error) {
	s.mu.RLock()
	rows := make([]Summary, 0, len(s.candidates))
	for _, c := range s.candidates {
		if Matches(c, opts.Query) {
			rows = append(rows, c.Clone().ToSummary())
		}
	}
	s.mu.RUnlock()

	SortSummaries(rows, opts.SortBy)
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *MemoryStore) mutate(id string, fn func(c *Candidate) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return ErrNotFound
	}
	return fn(c)
}

// Matches reports whether a candidate's name, email or summary contains
// query, ignoring case. An empty query matches everything.
func Matches(c *Candidate, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Email, c.Summary} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// SortSummaries orders rows for the dashboard. Scores sort highest first
// with unscored candidates last; dates sort newest first; names sort A-Z.
func SortSummaries(rows []Summary, by string) {
	switch by {
	case SortByScore:
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].FinalScore, rows[j].FinalScore
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return *a > *b
			}
		})
	case SortByName:
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		})
	}
}
