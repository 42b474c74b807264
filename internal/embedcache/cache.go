package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/xxxsen/embedserver/internal/ai"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

type lookupFunc func(ctx context.Context, hashes []string) (map[string][]float32, error)

type storeFunc func(ctx context.Context, hashes []string, vectors [][]float32)

// embedThrough serves texts from lookup and sends every distinct miss to next
// in a single call. The result keeps input order and length.
func embedThrough(ctx context.Context, next ai.IEmbedder, texts []string, lookup lookupFunc, store storeFunc) ([][]float32, int, error) {
	if len(texts) == 0 {
		return nil, 0, nil
	}
	hashes := make([]string, len(texts))
	for i, text := range texts {
		hashes[i] = contentHash(text)
	}
	found, err := lookup(ctx, uniq(hashes))
	if err != nil {
		return nil, 0, err
	}
	if found == nil {
		found = make(map[string][]float32)
	}
	var (
		missHashes []string
		missTexts  []string
		seen       = make(map[string]struct{})
	)
	for i, h := range hashes {
		if _, ok := found[h]; ok {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		missHashes = append(missHashes, h)
		missTexts = append(missTexts, texts[i])
	}
	hits := len(texts)
	if len(missTexts) > 0 {
		vectors, err := next.Embed(ctx, missTexts)
		if err != nil {
			return nil, 0, err
		}
		if len(vectors) != len(missTexts) {
			return nil, 0, fmt.Errorf("%w: backend returned %d embeddings for %d texts", appErr.ErrChunkCountMismatch, len(vectors), len(missTexts))
		}
		for i, h := range missHashes {
			found[h] = vectors[i]
		}
		store(ctx, missHashes, vectors)
		hits = 0
		for _, h := range hashes {
			if _, ok := seen[h]; !ok {
				hits++
			}
		}
	}
	out := make([][]float32, len(texts))
	for i, h := range hashes {
		out[i] = cloneEmbedding(found[h])
	}
	return out, hits, nil
}

func contentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

func cacheKey(modelName, hash string) string {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	return "embed:" + modelName + ":" + hash
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func cloneEmbedding(values []float32) []float32 {
	if values == nil {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
