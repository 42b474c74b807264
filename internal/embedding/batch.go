package embedding

import (
	"fmt"

	"github.com/xxxsen/embedserver/internal/model"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

// Group records how many consecutive entries of Batch.Texts belong to the
// document with the given id.
type Group struct {
	ID         int64
	ChunkCount int
}

type Batch struct {
	Texts  []string
	Groups []Group
}

func (b *Batch) ChunkTotal() int {
	total := 0
	for _, g := range b.Groups {
		total += g.ChunkCount
	}
	return total
}

func BuildBatch(requests []model.EmbeddingRequestUnit, opts ChunkOptions) (*Batch, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	batch := &Batch{
		Texts:  make([]string, 0, len(requests)),
		Groups: make([]Group, 0, len(requests)),
	}
	for _, req := range requests {
		text := req.Text
		if opts.StripMarkdown {
			text = StripMarkdown(text)
		}
		chunks, err := Chunk(text, opts.Size, opts.Overlap)
		if err != nil {
			return nil, err
		}
		batch.Texts = append(batch.Texts, chunks...)
		batch.Groups = append(batch.Groups, Group{ID: req.ID, ChunkCount: len(chunks)})
	}
	return batch, nil
}

// Reassemble hands out vectors to groups in order. Nothing is sliced unless
// the group counts add up to exactly len(vectors).
func Reassemble(vectors [][]float32, groups []Group) ([]model.EmbeddingResponseUnit, error) {
	total := 0
	for _, g := range groups {
		total += g.ChunkCount
	}
	if total != len(vectors) {
		return nil, fmt.Errorf("%w: groups expect %d vectors, got %d", appErr.ErrChunkCountMismatch, total, len(vectors))
	}
	units := make([]model.EmbeddingResponseUnit, 0, len(groups))
	offset := 0
	for _, g := range groups {
		embeddings := vectors[offset : offset+g.ChunkCount : offset+g.ChunkCount]
		if embeddings == nil {
			embeddings = [][]float32{}
		}
		units = append(units, model.EmbeddingResponseUnit{ID: g.ID, Embeddings: embeddings})
		offset += g.ChunkCount
	}
	return units, nil
}
