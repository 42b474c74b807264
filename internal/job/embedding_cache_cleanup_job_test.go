package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	cutoff int64
	err    error
}

func (f *fakePruner) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestEmbeddingCacheCleanupJob_Cutoff(t *testing.T) {
	pruner := &fakePruner{}
	j := NewEmbeddingCacheCleanupJob(pruner, 2)
	now := time.Unix(1_700_000_000, 0)
	j.now = func() time.Time { return now }

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, now.Add(-48*time.Hour).Unix(), pruner.cutoff)
	require.Equal(t, "embedding_cache_cleanup", j.Name())
}

func TestEmbeddingCacheCleanupJob_DefaultsAndErrors(t *testing.T) {
	pruner := &fakePruner{err: errors.New("boom")}
	j := NewEmbeddingCacheCleanupJob(pruner, 0)
	require.Equal(t, defaultMaxAgeDays, j.maxAgeDays)
	require.ErrorContains(t, j.Run(context.Background()), "boom")

	require.NoError(t, NewEmbeddingCacheCleanupJob(nil, 1).Run(context.Background()))
}
