package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = 30 * time.Minute
	cacheKeyPrefix  = "interview:questions"
)

// Cache keeps remote prompt packs in Redis, keyed by role and stack. Only
// prompt texts are stored; question ids are minted per session.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PackCache = (*Cache)(nil)

type cachedPack struct {
	Prompts     []Prompt  `json:"prompts"`
	GeneratedAt time.Time `json:"generated_at"`
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(req Request) string {
	return strings.Join([]string{
		cacheKeyPrefix,
		strings.ToLower(strings.TrimSpace(req.Role)),
		strings.ToLower(strings.TrimSpace(req.Stack)),
	}, ":")
}

// Get returns the cached pack for req, or nil when there is none. An entry
// that no longer decodes is evicted and reported as a miss.
func (c *Cache) Get(ctx context.Context, req Request) ([]Prompt, error) {
	key := cacheKey(req)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read question pack %s: %w", key, err)
	}

	var pack cachedPack
	if err := json.Unmarshal(data, &pack); err != nil || len(pack.Prompts) == 0 {
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			return nil, fmt.Errorf("evict question pack %s: %w", key, delErr)
		}
		return nil, nil
	}
	return pack.Prompts, nil
}

func (c *Cache) Set(ctx context.Context, req Request, prompts []Prompt) error {
	data, err := json.Marshal(cachedPack{Prompts: prompts, GeneratedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode question pack: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(req), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("write question pack: %w", err)
	}
	return nil
}
