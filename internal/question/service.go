package question

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/metrics"
)

// Sources reported for a generated set.
const (
	SourceCache  = "cache"
	SourceRemote = "remote"
	SourceBank   = "bank"
)

// PackCache defines cache behavior (implemented by Redis-backed Cache).
type PackCache interface {
	Get(ctx context.Context, req Request) ([]Prompt, error)
	Set(ctx context.Context, req Request, prompts []Prompt) error
}

// Generator produces tailored prompts from a remote model.
type Generator interface {
	GenerateQuestions(ctx context.Context, req Request) ([]Prompt, error)
}

// Sequencer builds the six question set for a session, preferring remote
// content and falling back to the fixed bank.
type Sequencer struct {
	bank      *Bank
	cache     PackCache
	generator Generator
	defaults  Request
	logger    zerolog.Logger
}

// SequencerOptions configures optional collaborators; nil fields are skipped.
type SequencerOptions struct {
	Cache     PackCache
	Generator Generator
	Defaults  Request
}

func NewSequencer(bank *Bank, opts SequencerOptions, logger zerolog.Logger) *Sequencer {
	defaults := opts.Defaults
	if defaults.Role == "" {
		defaults.Role = "fullstack"
	}
	if defaults.Stack == "" {
		defaults.Stack = "React/Node"
	}
	return &Sequencer{
		bank:      bank,
		cache:     opts.Cache,
		generator: opts.Generator,
		defaults:  defaults,
		logger:    logger.With().Str("component", "question_sequencer").Logger(),
	}
}

// Generate returns a complete set: two easy, two medium, two hard, with
// fresh ids on every call. It never fails; the bank is the last resort.
func (s *Sequencer) Generate(ctx context.Context, req Request) []Question {
	req = s.withDefaults(req)

	prompts, source := s.resolve(ctx, req)
	metrics.QuestionSetsGenerated.WithLabelValues(source).Inc()

	questions := make([]Question, 0, len(prompts))
	for _, p := range prompts {
		questions = append(questions, Question{
			ID:         uuid.NewString(),
			Text:       p.Text,
			Difficulty: p.Difficulty,
			TimeLimit:  TimeLimitFor(p.Difficulty),
		})
	}
	return questions
}

// Prefetch warms the cache with remote content for req.
func (s *Sequencer) Prefetch(ctx context.Context, req Request) error {
	if s.generator == nil || s.cache == nil {
		return nil
	}
	req = s.withDefaults(req)
	prompts, err := s.fetchRemote(ctx, req)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, req, prompts)
}

func (s *Sequencer) resolve(ctx context.Context, req Request) ([]Prompt, string) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, req)
		if err != nil {
			s.logger.Warn().Err(err).Msg("question cache read failed")
		} else if cached != nil {
			if normalized, err := Normalize(cached); err == nil {
				return normalized, SourceCache
			}
		}
	}

	if s.generator != nil {
		prompts, err := s.fetchRemote(ctx, req)
		if err == nil {
			if s.cache != nil {
				if err := s.cache.Set(ctx, req, prompts); err != nil {
					s.logger.Warn().Err(err).Msg("question cache write failed")
				}
			}
			return prompts, SourceRemote
		}
		s.logger.Warn().Err(err).Str("role", req.Role).Msg("remote question generation failed, using bank")
	}

	return s.bank.Draw(), SourceBank
}

func (s *Sequencer) fetchRemote(ctx context.Context, req Request) ([]Prompt, error) {
	prompts, err := s.generator.GenerateQuestions(ctx, req)
	if err != nil {
		return nil, err
	}
	return Normalize(prompts)
}

func (s *Sequencer) withDefaults(req Request) Request {
	if strings.TrimSpace(req.Role) == "" {
		req.Role = s.defaults.Role
	}
	if strings.TrimSpace(req.Stack) == "" {
		req.Stack = s.defaults.Stack
	}
	return req
}

// Normalize checks that prompts form exactly PerTier of each tier in ask
// order with non-empty text, and returns a trimmed copy.
func Normalize(prompts []Prompt) ([]Prompt, error) {
	if len(prompts) != SetSize {
		return nil, fmt.Errorf("expected %d questions, got %d", SetSize, len(prompts))
	}
	out := make([]Prompt, len(prompts))
	for i, p := range prompts {
		want := Tiers[i/PerTier]
		diff := strings.ToLower(strings.TrimSpace(p.Difficulty))
		if diff != want {
			return nil, fmt.Errorf("question %d: expected difficulty %s, got %q", i, want, p.Difficulty)
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, fmt.Errorf("question %d: empty text", i)
		}
		out[i] = Prompt{Text: text, Difficulty: diff}
	}
	return out, nil
}
