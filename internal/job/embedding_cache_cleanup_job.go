package job

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultMaxAgeDays = 30

// CachePruner removes cached embeddings created before cutoff (unix seconds).
type CachePruner interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// EmbeddingCacheCleanupJob drops persisted embeddings older than maxAgeDays.
type EmbeddingCacheCleanupJob struct {
	pruner     CachePruner
	maxAgeDays int
	now        func() time.Time
}

func NewEmbeddingCacheCleanupJob(pruner CachePruner, maxAgeDays int) *EmbeddingCacheCleanupJob {
	if maxAgeDays <= 0 {
		maxAgeDays = defaultMaxAgeDays
	}
	return &EmbeddingCacheCleanupJob{pruner: pruner, maxAgeDays: maxAgeDays, now: time.Now}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.pruner == nil {
		return nil
	}
	cutoff := j.now().Add(-time.Duration(j.maxAgeDays) * 24 * time.Hour).Unix()
	removed, err := j.pruner.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune embedding cache: %w", err)
	}
	logutil.GetLogger(ctx).Info("embedding cache pruned",
		zap.Int64("removed", removed),
		zap.Int("max_age_days", j.maxAgeDays),
	)
	return nil
}
