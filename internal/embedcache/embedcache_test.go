package embedcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/embedserver/internal/model"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

type countingEmbedder struct {
	batches [][]string
	short   bool
	err     error
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches = append(c.batches, append([]string(nil), texts...))
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, []float32{float32(len(t)), 1})
	}
	if c.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (c *countingEmbedder) ModelName() string {
	return "m"
}

type memStore struct {
	mu      sync.Mutex
	rows    map[string][]float32
	getErr  error
	saveErr error
	saved   int
}

func (m *memStore) GetMany(ctx context.Context, modelName string, hashes []string) (map[string][]float32, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]float32)
	for _, h := range hashes {
		if v, ok := m.rows[modelName+"/"+h]; ok {
			out[h] = v
		}
	}
	return out, nil
}

func (m *memStore) SaveMany(ctx context.Context, items []*model.EmbeddingCache) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.rows[item.ModelName+"/"+item.ContentHash] = item.Embedding
		m.saved++
	}
	return nil
}

func TestLruCache_OnlyMissesReachBackend(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLruCacheToEmbedder(next, 16, time.Minute)
	require.Equal(t, "m", e.ModelName())

	res, err := e.Embed(context.Background(), []string{"aa", "b", "aa"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{2, 1}, {1, 1}, {2, 1}}, res)
	require.Equal(t, [][]string{{"aa", "b"}}, next.batches)

	res, err = e.Embed(context.Background(), []string{"b", "ccc"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 1}, {3, 1}}, res)
	require.Equal(t, []string{"ccc"}, next.batches[1])

	_, err = e.Embed(context.Background(), []string{"aa", "ccc"})
	require.NoError(t, err)
	require.Len(t, next.batches, 2)
}

func TestLruCache_ReturnsCopies(t *testing.T) {
	e := WrapLruCacheToEmbedder(&countingEmbedder{}, 4, 0)
	first, err := e.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	first[0][0] = 99
	second, err := e.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	require.Equal(t, float32(1), second[0][0])
}

func TestLruCache_Disabled(t *testing.T) {
	next := &countingEmbedder{}
	require.Same(t, next, WrapLruCacheToEmbedder(next, 0, time.Minute))
}

func TestCache_CountMismatch(t *testing.T) {
	e := WrapLruCacheToEmbedder(&countingEmbedder{short: true}, 4, 0)
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, appErr.ErrChunkCountMismatch)
}

func TestDBCache_HitsAndStores(t *testing.T) {
	store := &memStore{rows: map[string][]float32{
		"m/" + contentHash("cached"): {7, 7},
	}}
	next := &countingEmbedder{}
	e := WrapDBCacheToEmbedder(next, store)

	res, err := e.Embed(context.Background(), []string{"cached", "new", "new"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{7, 7}, {3, 1}, {3, 1}}, res)
	require.Equal(t, [][]string{{"new"}}, next.batches)
	require.Equal(t, 1, store.saved)
}

func TestDBCache_StoreErrorsDoNotFail(t *testing.T) {
	store := &memStore{rows: map[string][]float32{}, getErr: errors.New("read"), saveErr: errors.New("write")}
	next := &countingEmbedder{}
	res, err := WrapDBCacheToEmbedder(next, store).Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestDBCache_BackendError(t *testing.T) {
	store := &memStore{rows: map[string][]float32{}}
	_, err := WrapDBCacheToEmbedder(&countingEmbedder{err: errors.New("down")}, store).Embed(context.Background(), []string{"a"})
	require.EqualError(t, err, "down")
	require.Equal(t, 0, store.saved)
}
