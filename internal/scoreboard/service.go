package scoreboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/mock-interview/pkg/http/ws"
)

// Entry is one ranked, completed candidate.
type Entry struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	FinalScore  int    `json:"final_score"`
}

// Options configures scoreboard behavior.
type Options struct {
	TopN           int
	PubSubChannel  string
	RedisKeyPrefix string
}

// Service keeps completed candidates in a Redis sorted set and publishes
// changes over Pub/Sub.
type Service struct {
	redis   *redis.Client
	logger  zerolog.Logger
	topN    int
	channel string
	prefix  string
}

func NewService(redis *redis.Client, logger zerolog.Logger, opts Options) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "scoreboard:updates"
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "scoreboard"
	}
	return &Service{
		redis:   redis,
		logger:  logger.With().Str("component", "scoreboard").Logger(),
		topN:    topN,
		channel: channel,
		prefix:  prefix,
	}
}

// Record sets a candidate's final score. A re-interviewed candidate replaces
// its previous entry rather than accumulating.
func (s *Service) Record(ctx context.Context, candidateID, name string, finalScore int) error {
	if err := s.upsert(ctx, Entry{CandidateID: candidateID, Name: name, FinalScore: finalScore}); err != nil {
		return err
	}
	s.publishUpdate(ctx, candidateID)
	return nil
}

// Top returns up to limit entries, highest score first.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.scoresKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard: %w", err)
	}
	if len(results) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(results))
	for i, z := range results {
		ids[i] = z.Member.(string)
	}
	names, err := s.redis.HMGet(ctx, s.namesKey(), ids...).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read scoreboard names")
		names = make([]interface{}, len(ids))
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		name, _ := names[i].(string)
		entries[i] = Entry{CandidateID: ids[i], Name: name, FinalScore: int(z.Score)}
	}
	return entries, nil
}

func (s *Service) upsert(ctx context.Context, e Entry) error {
	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, s.scoresKey(), redis.Z{Score: float64(e.FinalScore), Member: e.CandidateID})
	pipe.HSet(ctx, s.namesKey(), e.CandidateID, e.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update scoreboard: %w", err)
	}
	return nil
}

func (s *Service) publishUpdate(ctx context.Context, candidateID string) {
	entries, err := s.Top(ctx, 10)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to collect scoreboard update")
		return
	}

	data, err := json.Marshal(ws.ScoreboardUpdatePayload{Top: toWSEntries(entries), CandidateID: candidateID})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal scoreboard update")
		return
	}
	if err := s.redis.Publish(ctx, s.channel, data).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish scoreboard update")
	}
}

func (s *Service) scoresKey() string {
	return s.prefix + ":final_scores"
}

func (s *Service) namesKey() string {
	return s.prefix + ":names"
}

func toWSEntries(entries []Entry) []ws.ScoreboardEntry {
	result := make([]ws.ScoreboardEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.ScoreboardEntry{
			Rank:        i + 1,
			CandidateID: e.CandidateID,
			Name:        e.Name,
			FinalScore:  e.FinalScore,
		}
	}
	return result
}
