package embedding

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	queryCacheTTL     = time.Hour
	queryCachePurge   = 10 * time.Minute
	redisOpTimeout    = 200 * time.Millisecond
	redisKeyNamespace = "embed:"
)

// CachedProvider wraps an EmbeddingProvider with a two tier query cache:
// process-local go-cache first, then an optional shared Redis tier. Redis
// errors degrade to a plain cache miss, never to a request failure.
type CachedProvider struct {
	inner EmbeddingProvider
	local *gocache.Cache
	redis *redis.Client
}

func NewCachedProvider(inner EmbeddingProvider, redisClient *redis.Client) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		local: gocache.New(queryCacheTTL, queryCachePurge),
		redis: redisClient,
	}
}

func cacheKey(text, taskType string) string {
	sum := md5.Sum([]byte(taskType + ":" + text))
	return redisKeyNamespace + fmt.Sprintf("%x", sum)
}

func (p *CachedProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	key := cacheKey(text, taskType)

	if hit, found := p.local.Get(key); found {
		if values, ok := hit.([]float32); ok {
			return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}, nil
		}
	}

	if p.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		raw, err := p.redis.Get(ctx, key).Bytes()
		cancel()
		if err == nil {
			var values []float32
			if err := json.Unmarshal(raw, &values); err == nil && len(values) > 0 {
				p.local.Set(key, values, gocache.DefaultExpiration)
				return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}, nil
			}
		}
	}

	res, err := p.inner.Generate(text, taskType)
	if err != nil {
		return nil, err
	}

	p.local.Set(key, res.Embedding.Values, gocache.DefaultExpiration)
	if p.redis != nil {
		if raw, err := json.Marshal(res.Embedding.Values); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
			p.redis.Set(ctx, key, raw, queryCacheTTL)
			cancel()
		}
	}

	return res, nil
}

func (p *CachedProvider) GenerateBatch(texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		res, err := p.Generate(text, taskType)
		if err != nil {
			return nil, fmt.Errorf("batch embed item %d: %w", len(vectors), err)
		}
		vectors = append(vectors, res.Embedding.Values)
	}
	return vectors, nil
}
