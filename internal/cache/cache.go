package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"ragchat/internal/config"
)

// ErrMiss mirrors redis.Nil for callers.
var ErrMiss = redis.Nil

const defaultTTL = 15 * time.Minute

// AnswerCache memoizes query answers in redis, keyed by document id and
// query text. A nil *AnswerCache is valid and behaves as a disabled cache, so
// the server runs without redis.
type AnswerCache struct {
	inner *redis.Client
	ttl   time.Duration
}

// New connects to redis using the app config. An unreachable redis returns
// an error; callers may choose to continue with a nil cache.
func New(cfg *config.Config) (*AnswerCache, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	host := cfg.Redis.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Redis.Port
	if port == 0 {
		port = 6379
	}
	ttl := time.Duration(cfg.Redis.CacheTTL) * time.Minute
	if ttl <= 0 {
		ttl = defaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &AnswerCache{inner: client, ttl: ttl}, nil
}

// Lookup returns the cached answer for (documentID, query), or ErrMiss.
func (c *AnswerCache) Lookup(ctx context.Context, documentID, query string) (string, error) {
	if c == nil || c.inner == nil {
		return "", ErrMiss
	}
	return c.inner.Get(ctx, answerKey(documentID, query)).Result()
}

// Store saves an answer with the configured TTL. Disabled caches discard.
func (c *AnswerCache) Store(ctx context.Context, documentID, query, answer string) error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Set(ctx, answerKey(documentID, query), answer, c.ttl).Err()
}

// Invalidate drops any cached answers scoped to the document.
func (c *AnswerCache) Invalidate(ctx context.Context, documentID string) error {
	if c == nil || c.inner == nil {
		return nil
	}
	iter := c.inner.Scan(ctx, 0, answerKey(documentID, "*"), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.inner.Del(ctx, keys...).Err()
}

// Close releases the redis connection.
func (c *AnswerCache) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

func answerKey(documentID, query string) string {
	if documentID == "" {
		documentID = "_global"
	}
	return fmt.Sprintf("ragchat:answer:%s:%s", documentID, query)
}
