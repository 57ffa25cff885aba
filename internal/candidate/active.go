package candidate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	activeKey     = "interview:active_candidate"
	activeLockKey = "interview:active_candidate:lock"
	lockTTL       = 10 * time.Second
)

// unlockScript ensures we only delete our own lock.
var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// ErrSwitchInProgress is returned when another switch holds the pointer lock.
var ErrSwitchInProgress = errors.New("active candidate switch already in progress")

// ActivePointer tracks which candidate the orchestrator is driving.
type ActivePointer interface {
	Set(ctx context.Context, id string) error
	Get(ctx context.Context) (string, error)
}

// RedisActivePointer keeps the active candidate id in Redis so it survives
// restarts of the API process.
type RedisActivePointer struct {
	redis  *redis.Client
	logger zerolog.Logger
}

var _ ActivePointer = (*RedisActivePointer)(nil)

func NewRedisActivePointer(client *redis.Client, logger zerolog.Logger) *RedisActivePointer {
	return &RedisActivePointer{
		redis:  client,
		logger: logger.With().Str("component", "active_pointer").Logger(),
	}
}

// Set swaps the pointer under a short lock so concurrent switches from two
// API instances can't interleave.
func (p *RedisActivePointer) Set(ctx context.Context, id string) error {
	unlock, err := p.lock(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			p.logger.Warn().Err(err).Msg("release active lock failed")
		}
	}()

	if err := p.redis.Set(ctx, activeKey, id, 0).Err(); err != nil {
		return fmt.Errorf("set active candidate: %w", err)
	}
	return nil
}

// Get returns the active id, or ErrNoActiveCandidate.
func (p *RedisActivePointer) Get(ctx context.Context) (string, error) {
	id, err := p.redis.Get(ctx, activeKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoActiveCandidate
	}
	if err != nil {
		return "", fmt.Errorf("get active candidate: %w", err)
	}
	return id, nil
}

func (p *RedisActivePointer) lock(ctx context.Context) (func() error, error) {
	lockValue := uuid.NewString()
	acquired, err := p.redis.SetNX(ctx, activeLockKey, lockValue, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, ErrSwitchInProgress
	}
	return func() error {
		return unlockScript.Run(ctx, p.redis, []string{activeLockKey}, lockValue).Err()
	}, nil
}
