package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/yuyuyu0706/quiz-practice/internal/domain"
)

const catalogKey = "quizpractice:catalog"

// CatalogSource fetches the question catalog from a backing store (file, Postgres).
type CatalogSource interface {
	Load(ctx context.Context) ([]domain.Question, error)
}

// CatalogCache keeps the marshalled catalog in Redis with a TTL and falls back
// to the underlying source on cache miss.
type CatalogCache struct {
	client *redis.Client
	source CatalogSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, source CatalogSource, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) Load(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := c.cached(ctx); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.cached(ctx); ok {
			return questions, nil
		}

		questions, err := c.source.Load(ctx)
		if err != nil {
			return nil, err
		}

		if doc, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, catalogKey, doc, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *CatalogCache) cached(ctx context.Context) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		_ = c.client.Del(ctx, catalogKey).Err()
		return nil, false
	}
	return questions, true
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
