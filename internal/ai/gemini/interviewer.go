package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/gokatarajesh/mock-interview/internal/interview/scoring"
	"github.com/gokatarajesh/mock-interview/internal/question"
)

type textGenerator interface {
	GenerateText(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// Interviewer backs question generation, scoring and summaries with Gemini.
type Interviewer struct {
	gen    textGenerator
	logger zerolog.Logger
}

var (
	_ question.Generator   = (*Interviewer)(nil)
	_ scoring.RemoteScorer = (*Interviewer)(nil)
	_ scoring.Summarizer   = (*Interviewer)(nil)
)

func NewInterviewer(gen textGenerator, logger zerolog.Logger) *Interviewer {
	return &Interviewer{gen: gen, logger: logger.With().Str("component", "gemini_interviewer").Logger()}
}

// GenerateQuestions asks for two questions per tier as JSON.
func (i *Interviewer) GenerateQuestions(ctx context.Context, req question.Request) ([]question.Prompt, error) {
	prompt := fmt.Sprintf(`Create %d interview questions for a %s role focused on %s.
Return a JSON array of objects with fields: text, difficulty (easy|medium|hard).
Order: %d easy, then %d medium, then %d hard. Keep questions concise.`,
		question.SetSize, req.Role, req.Stack, question.PerTier, question.PerTier, question.PerTier)

	raw, err := i.gen.GenerateText(ctx, prompt, jsonConfig(0.7))
	if err != nil {
		return nil, err
	}

	var prompts []question.Prompt
	if err := decodeJSON(raw, &prompts); err != nil {
		return nil, fmt.Errorf("parse gemini questions: %w", err)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("gemini returned zero questions")
	}
	return prompts, nil
}

// ScoreAnswer grades an answer from 0 to 100 with a one line feedback.
func (i *Interviewer) ScoreAnswer(ctx context.Context, req scoring.ScoreRequest) (int, string, error) {
	prompt := fmt.Sprintf(`You are an interviewer scoring candidate answers (0-100).
Score the answer to the question below. Provide a numeric score and a one-line feedback.
Respond JSON: {"score": number, "feedback": "..."}.

Question: %s
Difficulty: %s
Time limit: %d
Time spent: %d
Candidate answer: %s`, req.Question, req.Difficulty, req.TimeLimit, req.TimeSpentSeconds, req.Answer)

	raw, err := i.gen.GenerateText(ctx, prompt, jsonConfig(0))
	if err != nil {
		return 0, "", err
	}

	var out struct {
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		return 0, "", fmt.Errorf("parse gemini score: %w", err)
	}
	if out.Score == nil {
		return 0, "", fmt.Errorf("gemini reply missing score")
	}
	return int(*out.Score + 0.5), out.Feedback, nil
}

// Summarize writes a short narrative summary of the session.
func (i *Interviewer) Summarize(ctx context.Context, req scoring.SummaryRequest) (string, error) {
	var b strings.Builder
	for n, a := range req.Answers {
		if n > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s\nScore: %d", a.Question, a.Answer, a.Score)
	}

	prompt := fmt.Sprintf(`You are an interviewer assistant. Create a concise 3-sentence summary about %s, highlighting strengths and weaknesses, based on the following answers and total score (%d). Do not exceed %d words. Respond with plain text only.

%s`, req.Name, req.TotalScore, scoring.SummaryWordLimit, b.String())

	return i.gen.GenerateText(ctx, prompt, &genai.GenerateContentConfig{Temperature: float32Ptr(0.6)})
}

func jsonConfig(temperature float32) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      float32Ptr(temperature),
	}
}

// decodeJSON tolerates fenced replies.
func decodeJSON(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return json.Unmarshal([]byte(strings.TrimSpace(raw)), v)
}

func float32Ptr(v float32) *float32 { return &v }
