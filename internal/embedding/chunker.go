package embedding

import (
	"fmt"

	appErr "github.com/xxxsen/embedserver/internal/pkg/errors"
)

// ChunkOptions controls how a document is windowed before inference.
type ChunkOptions struct {
	Size          int
	Overlap       int
	StripMarkdown bool
}

func (o ChunkOptions) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", appErr.ErrInvalid, o.Size)
	}
	if o.Overlap < 0 || o.Overlap >= o.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", appErr.ErrInvalid, o.Size, o.Overlap)
	}
	return nil
}

// Chunk splits text into windows of at most size runes. Consecutive windows
// share overlap runes and the last window always ends at the end of text.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := (ChunkOptions{Size: size, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return []string{}, nil
	}
	step := size - overlap
	chunks := make([]string, 0, n/step+1)
	for i := 0; ; i += step {
		end := i + size
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == n {
			break
		}
	}
	return chunks, nil
}
