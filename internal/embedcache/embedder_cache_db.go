package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/embedserver/internal/ai"
	"github.com/xxxsen/embedserver/internal/model"
)

// Store is the persistence used by the database cache, implemented by
// repo.EmbeddingCacheRepo.
type Store interface {
	GetMany(ctx context.Context, modelName string, contentHashes []string) (map[string][]float32, error)
	SaveMany(ctx context.Context, items []*model.EmbeddingCache) error
}

func WrapDBCacheToEmbedder(e ai.IEmbedder, store Store) ai.IEmbedder {
	if e == nil || store == nil {
		return e
	}
	return &dbEmbedder{next: e, store: store, now: time.Now}
}

type dbEmbedder struct {
	next  ai.IEmbedder
	store Store
	now   func() time.Time
}

func (d *dbEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	modelName := d.next.ModelName()
	lookup := func(ctx context.Context, hashes []string) (map[string][]float32, error) {
		found, err := d.store.GetMany(ctx, modelName, hashes)
		if err != nil {
			logutil.GetLogger(ctx).Warn("read embedding cache failed", zap.Error(err))
			return map[string][]float32{}, nil
		}
		return found, nil
	}
	store := func(ctx context.Context, hashes []string, vectors [][]float32) {
		ctime := d.now().Unix()
		items := make([]*model.EmbeddingCache, 0, len(hashes))
		for i, h := range hashes {
			items = append(items, &model.EmbeddingCache{
				ModelName:   modelName,
				ContentHash: h,
				Embedding:   vectors[i],
				Ctime:       ctime,
			})
		}
		if err := d.store.SaveMany(ctx, items); err != nil {
			logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
		}
	}
	res, hits, err := embedThrough(ctx, d.next, texts, lookup, store)
	if err != nil {
		return nil, err
	}
	if hits > 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)", zap.Int("hits", hits), zap.Int("total", len(texts)))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}
