package embedding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/embedserver/internal/model"
	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

func TestBuildBatch_Groups(t *testing.T) {
	reqs := []model.EmbeddingRequestUnit{
		{ID: 7, Text: "abcdefghijklmnopqrstuvwxy"},
		{ID: 7, Text: "short"},
		{ID: 9, Text: ""},
	}
	batch, err := BuildBatch(reqs, ChunkOptions{Size: 10, Overlap: 3})
	require.NoError(t, err)
	require.Equal(t, []Group{{ID: 7, ChunkCount: 4}, {ID: 7, ChunkCount: 1}, {ID: 9, ChunkCount: 0}}, batch.Groups)
	require.Len(t, batch.Texts, 5)
	require.Equal(t, 5, batch.ChunkTotal())
	require.Equal(t, "short", batch.Texts[4])
}

func TestBuildBatch_InvalidOptions(t *testing.T) {
	_, err := BuildBatch([]model.EmbeddingRequestUnit{{ID: 1, Text: "x"}}, ChunkOptions{Size: 3, Overlap: 3})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestReassemble(t *testing.T) {
	vectors := [][]float32{{0}, {1}, {2}, {3}}
	units, err := Reassemble(vectors, []Group{{ID: 1, ChunkCount: 3}, {ID: 2, ChunkCount: 0}, {ID: 3, ChunkCount: 1}})
	require.NoError(t, err)
	require.Len(t, units, 3)
	require.Equal(t, [][]float32{{0}, {1}, {2}}, units[0].Embeddings)
	require.NotNil(t, units[1].Embeddings)
	require.Empty(t, units[1].Embeddings)
	require.Equal(t, [][]float32{{3}}, units[2].Embeddings)
}

func TestReassemble_CountMismatch(t *testing.T) {
	_, err := Reassemble([][]float32{{0}, {1}}, []Group{{ID: 1, ChunkCount: 3}})
	require.ErrorIs(t, err, appErr.ErrChunkCountMismatch)

	_, err = Reassemble([][]float32{{0}, {1}, {2}}, []Group{{ID: 1, ChunkCount: 1}})
	require.ErrorIs(t, err, appErr.ErrChunkCountMismatch)
}
