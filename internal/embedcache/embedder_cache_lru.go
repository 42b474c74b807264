package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/ai"
)

// WrapLruCacheToEmbedder keeps up to size chunk vectors in memory for ttl. A
// non-positive ttl keeps entries until they are evicted by size.
func WrapLruCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 {
		return e
	}
	if ttl < 0 {
		ttl = 0
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	modelName := l.next.ModelName()
	lookup := func(ctx context.Context, hashes []string) (map[string][]float32, error) {
		found := make(map[string][]float32, len(hashes))
		for _, h := range hashes {
			if v, ok := l.cache.Get(cacheKey(modelName, h)); ok {
				found[h] = v
			}
		}
		return found, nil
	}
	store := func(ctx context.Context, hashes []string, vectors [][]float32) {
		for i, h := range hashes {
			l.cache.Add(cacheKey(modelName, h), cloneEmbedding(vectors[i]))
		}
	}
	res, hits, err := embedThrough(ctx, l.next, texts, lookup, store)
	if err != nil {
		return nil, err
	}
	if hits > 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.Int("hits", hits), zap.Int("total", len(texts)))
	}
	return res, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}
