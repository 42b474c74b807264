package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/embedserver/internal/model"
	"github.com/xxxsen/embedserver/internal/pkg/dbutil"
)

const embeddingCacheTable = "embedding_cache"

type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

// GetMany returns the cached vectors of modelName keyed by content hash.
// Hashes without a row are absent from the result.
func (r *EmbeddingCacheRepo) GetMany(ctx context.Context, modelName string, contentHashes []string) (map[string][]float32, error) {
	result := make(map[string][]float32, len(contentHashes))
	if len(contentHashes) == 0 {
		return result, nil
	}
	hashes := make([]interface{}, 0, len(contentHashes))
	for _, h := range contentHashes {
		hashes = append(hashes, h)
	}
	where := map[string]interface{}{
		"model_name":      modelName,
		"content_hash in": hashes,
	}
	sqlStr, args, err := builder.BuildSelect(embeddingCacheTable, where, []string{"content_hash", "embedding"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			hash      string
			embedding pgvector.Vector
		)
		if err := rows.Scan(&hash, &embedding); err != nil {
			return nil, err
		}
		result[hash] = embedding.Slice()
	}
	return result, rows.Err()
}

func (r *EmbeddingCacheRepo) SaveMany(ctx context.Context, items []*model.EmbeddingCache) error {
	if len(items) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		data = append(data, map[string]interface{}{
			"model_name":   item.ModelName,
			"content_hash": item.ContentHash,
			"embedding":    pgvector.NewVector(item.Embedding),
			"ctime":        item.Ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert(embeddingCacheTable, data)
	if err != nil {
		return err
	}
	sqlStr += " ON CONFLICT (model_name, content_hash) DO UPDATE SET embedding = EXCLUDED.embedding, ctime = EXCLUDED.ctime"
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete(embeddingCacheTable, map[string]interface{}{"ctime <": cutoff})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
