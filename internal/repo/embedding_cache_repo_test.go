package repo

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/embedserver/internal/model"
)

func TestEmbeddingCacheRepo_GetMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .*content_hash.*embedding.* FROM embedding_cache WHERE .*content_hash IN \(\$\d+,\s?\$\d+\)`).
		WillReturnRows(sqlmock.NewRows([]string{"content_hash", "embedding"}).
			AddRow("h1", "[1,2,3]"))

	r := NewEmbeddingCacheRepo(db)
	got, err := r.GetMany(context.Background(), "m", []string{"h1", "h2"})
	require.NoError(t, err)
	require.Equal(t, map[string][]float32{"h1": {1, 2, 3}}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddingCacheRepo_GetManyEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	got, err := NewEmbeddingCacheRepo(db).GetMany(context.Background(), "m", nil)
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddingCacheRepo_SaveMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (model_name, content_hash) DO UPDATE SET embedding = EXCLUDED.embedding, ctime = EXCLUDED.ctime")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = NewEmbeddingCacheRepo(db).SaveMany(context.Background(), []*model.EmbeddingCache{
		{ModelName: "m", ContentHash: "h1", Embedding: []float32{1}, Ctime: 10},
		{ModelName: "m", ContentHash: "h2", Embedding: []float32{2}, Ctime: 10},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddingCacheRepo_DeleteBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM embedding_cache WHERE .*ctime\s?<\s?\$1`).
		WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewEmbeddingCacheRepo(db).DeleteBefore(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
