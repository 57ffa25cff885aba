package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
)

// Summary sources.
const (
	SummaryRemote   = "remote"
	SummaryTemplate = "template"
)

// SummaryWordLimit caps narrative summaries.
const SummaryWordLimit = 60

// SummaryRequest is what a remote summarizer receives.
type SummaryRequest struct {
	Name       string         `json:"name"`
	Answers    []AnswerDigest `json:"answers"`
	TotalScore int            `json:"totalScore"`
}

// AnswerDigest is the per question context given to the summarizer.
type AnswerDigest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
}

// Summarizer writes a short narrative about a finished interview.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// Result is the outcome of a finished session.
type Result struct {
	FinalScore int    `json:"final_score"`
	Summary    string `json:"summary"`
	Source     string `json:"source"`
}

// Aggregator computes the final score and summary.
type Aggregator struct {
	summarizer Summarizer
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewAggregator builds an aggregator; summarizer may be nil.
func NewAggregator(summarizer Summarizer, timeout time.Duration, logger zerolog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &Aggregator{
		summarizer: summarizer,
		timeout:    timeout,
		logger:     logger.With().Str("component", "session_aggregator").Logger(),
	}
}

// Aggregate returns round(mean score) and a summary. The summary falls back
// to a template when no summarizer is configured or it fails.
func (a *Aggregator) Aggregate(ctx context.Context, name string, answers []candidate.Answer) Result {
	final := FinalScore(answers)

	if a.summarizer != nil {
		rctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		text, err := a.summarizer.Summarize(rctx, SummaryRequest{
			Name:       displayName(name),
			Answers:    digest(answers),
			TotalScore: final,
		})
		if err == nil {
			if trimmed := TrimWords(text, SummaryWordLimit); trimmed != "" {
				return Result{FinalScore: final, Summary: trimmed, Source: SummaryRemote}
			}
			err = fmt.Errorf("summarizer returned empty text")
		}
		a.logger.Warn().Err(err).Msg("remote summary failed, using template")
	}

	return Result{FinalScore: final, Summary: TemplateSummary(name, final, len(answers)), Source: SummaryTemplate}
}

// FinalScore is the rounded mean of answer scores, 0 when there are none.
func FinalScore(answers []candidate.Answer) int {
	if len(answers) == 0 {
		return 0
	}
	sum := 0
	for _, a := range answers {
		sum += a.Score
	}
	return int(math.Round(float64(sum) / float64(len(answers))))
}

// TemplateSummary is the deterministic summary used without a summarizer.
func TemplateSummary(name string, finalScore, answered int) string {
	return fmt.Sprintf("Summary for %s: Final Score %d/100. Answered %d questions. Candidate strengths: please review chat for details.",
		displayName(name), finalScore, answered)
}

// TrimWords collapses whitespace and keeps at most max words.
func TrimWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) > max {
		words = words[:max]
	}
	return strings.Join(words, " ")
}

func displayName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "Candidate"
}

func digest(answers []candidate.Answer) []AnswerDigest {
	out := make([]AnswerDigest, len(answers))
	for i, a := range answers {
		text := a.AnswerText
		if strings.TrimSpace(text) == "" {
			text = "[no answer]"
		}
		out[i] = AnswerDigest{Question: a.QuestionText, Answer: text, Score: a.Score}
	}
	return out
}
