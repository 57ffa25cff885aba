package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/metrics"
	"github.com/gokatarajesh/mock-interview/internal/question"
)

// Evaluation sources.
const (
	SourceLocal    = "local"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Feedback lines produced by the local evaluator.
const (
	FeedbackEmpty = "No answer provided."
	FeedbackGreat = "Great answer, thorough and on point."
	FeedbackSolid = "Solid answer, covers the main points but lacks depth."
	FeedbackWeak  = "Short or lacking depth, try to include reasoning and examples."
)

const (
	minScore = 0
	maxScore = 100
)

// ScoringConfig holds the heuristic constants (defaults match the product rules).
type ScoringConfig struct {
	ShortAnswerChars int     // default: 20
	LongAnswerChars  int     // default: 80
	ShortPoints      int     // default: 20
	MediumPoints     int     // default: 45
	LongPoints       int     // default: 70
	EasyBonus        int     // default: 10
	MediumBonus      int     // default: 15
	HardBonus        int     // default: 20
	SpeedBonus       int     // default: 5
	SpeedBonusRatio  float64 // default: 0.5, bonus when time spent < limit * ratio
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ShortAnswerChars: 20,
		LongAnswerChars:  80,
		ShortPoints:      20,
		MediumPoints:     45,
		LongPoints:       70,
		EasyBonus:        10,
		MediumBonus:      15,
		HardBonus:        20,
		SpeedBonus:       5,
		SpeedBonusRatio:  0.5,
	}
}

// Evaluation is the score and one line feedback for an answer.
type Evaluation struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	Source   string `json:"source"`
}

// ScoreRequest is what a remote scorer receives.
type ScoreRequest struct {
	Question         string `json:"question"`
	Answer           string `json:"answer"`
	Difficulty       string `json:"difficulty"`
	TimeLimit        int    `json:"timeLimit"`
	TimeSpentSeconds int    `json:"timeSpent"`
}

// RemoteScorer grades an answer with a model.
type RemoteScorer interface {
	ScoreAnswer(ctx context.Context, req ScoreRequest) (score int, feedback string, err error)
}

// Evaluator scores answers, preferring the remote scorer when configured.
type Evaluator struct {
	config  ScoringConfig
	remote  RemoteScorer
	timeout time.Duration
	logger  zerolog.Logger
}

// NewEvaluator builds an evaluator; remote may be nil.
func NewEvaluator(config ScoringConfig, remote RemoteScorer, timeout time.Duration, logger zerolog.Logger) *Evaluator {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &Evaluator{
		config:  config,
		remote:  remote,
		timeout: timeout,
		logger:  logger.With().Str("component", "answer_evaluator").Logger(),
	}
}

// Evaluate always returns a score in [0, 100]. Remote failures, timeouts
// and out of range replies fall back to the local heuristic.
func (e *Evaluator) Evaluate(ctx context.Context, q question.Question, answer string, timeSpentSeconds int) Evaluation {
	start := time.Now()
	defer func() { metrics.EvaluationDuration.Observe(time.Since(start).Seconds()) }()

	local := e.Local(q, answer, timeSpentSeconds)
	if e.remote == nil || strings.TrimSpace(answer) == "" {
		metrics.EvaluationSource.WithLabelValues(SourceLocal).Inc()
		return local
	}

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	score, feedback, err := e.remote.ScoreAnswer(rctx, ScoreRequest{
		Question:         q.Text,
		Answer:           answer,
		Difficulty:       q.Difficulty,
		TimeLimit:        q.TimeLimit,
		TimeSpentSeconds: timeSpentSeconds,
	})
	if err == nil {
		err = validateRemote(score, feedback)
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("question_id", q.ID).Msg("remote scoring failed, using local heuristic")
		metrics.EvaluationSource.WithLabelValues(SourceFallback).Inc()
		local.Source = SourceFallback
		return local
	}

	metrics.EvaluationSource.WithLabelValues(SourceRemote).Inc()
	return Evaluation{Score: score, Feedback: strings.TrimSpace(feedback), Source: SourceRemote}
}

// Local applies the length, difficulty and speed heuristic.
func (e *Evaluator) Local(q question.Question, answer string, timeSpentSeconds int) Evaluation {
	text := strings.TrimSpace(answer)
	if text == "" {
		return Evaluation{Score: 0, Feedback: FeedbackEmpty, Source: SourceLocal}
	}

	cfg := e.config
	score := 0

	length := len([]rune(text))
	switch {
	case length < cfg.ShortAnswerChars:
		score += cfg.ShortPoints
	case length < cfg.LongAnswerChars:
		score += cfg.MediumPoints
	default:
		score += cfg.LongPoints
	}

	switch q.Difficulty {
	case question.DifficultyEasy:
		score += cfg.EasyBonus
	case question.DifficultyMedium:
		score += cfg.MediumBonus
	case question.DifficultyHard:
		score += cfg.HardBonus
	}

	if q.TimeLimit > 0 && float64(timeSpentSeconds) < float64(q.TimeLimit)*cfg.SpeedBonusRatio {
		score += cfg.SpeedBonus
	}

	score = clamp(score)
	return Evaluation{Score: score, Feedback: feedbackFor(score), Source: SourceLocal}
}

func feedbackFor(score int) string {
	switch {
	case score > 80:
		return FeedbackGreat
	case score > 50:
		return FeedbackSolid
	default:
		return FeedbackWeak
	}
}

func validateRemote(score int, feedback string) error {
	if score < minScore || score > maxScore {
		return fmt.Errorf("remote score %d out of range", score)
	}
	if strings.TrimSpace(feedback) == "" {
		return fmt.Errorf("remote feedback empty")
	}
	return nil
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
