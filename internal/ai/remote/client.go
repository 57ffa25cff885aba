package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/interview/scoring"
	"github.com/gokatarajesh/mock-interview/internal/question"
)

// Config holds connection details for the interview AI service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the HTTP interview AI service. It generates question
// sets, scores answers and writes final summaries.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger

	questionsURL string
	evaluateURL  string
	summaryURL   string
}

var (
	_ question.Generator   = (*Client)(nil)
	_ scoring.RemoteScorer = (*Client)(nil)
	_ scoring.Summarizer   = (*Client)(nil)
)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:       cfg,
		logger:       logger.With().Str("component", "ai_client").Logger(),
		questionsURL: base + "/generate-questions",
		evaluateURL:  base + "/evaluate-answer",
		summaryURL:   base + "/final-summary",
	}
}

// GenerateQuestions requests a tailored set. The sequencer validates shape.
func (c *Client) GenerateQuestions(ctx context.Context, req question.Request) ([]question.Prompt, error) {
	var resp questionsResponse
	if err := c.post(ctx, c.questionsURL, req, &resp); err != nil {
		return nil, err
	}

	prompts := make([]question.Prompt, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		prompts = append(prompts, question.Prompt{Text: q.Text, Difficulty: q.Difficulty})
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("generator returned empty question set")
	}
	return prompts, nil
}

// ScoreAnswer asks the service to grade one answer.
func (c *Client) ScoreAnswer(ctx context.Context, req scoring.ScoreRequest) (int, string, error) {
	var resp evaluateResponse
	if err := c.post(ctx, c.evaluateURL, req, &resp); err != nil {
		return 0, "", err
	}
	if resp.Score == nil {
		return 0, "", fmt.Errorf("evaluator reply missing score")
	}
	return *resp.Score, resp.Feedback, nil
}

// Summarize asks the service for a short narrative summary.
func (c *Client) Summarize(ctx context.Context, req scoring.SummaryRequest) (string, error) {
	var resp summaryResponse
	if err := c.post(ctx, c.summaryURL, req, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	if c.config.BaseURL == "" {
		return fmt.Errorf("ai endpoint not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		c.logger.Debug().Int("status", resp.StatusCode).Str("url", url).Str("body", string(snippet)).Msg("ai service error")
		return fmt.Errorf("ai service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ai payload: %w", err)
	}
	return nil
}

type remoteQuestion struct {
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
	TimeLimit  int    `json:"timeLimit"`
}

type questionsResponse struct {
	Questions []remoteQuestion `json:"questions"`
}

type evaluateResponse struct {
	Score    *int   `json:"score"`
	Feedback string `json:"feedback"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}
