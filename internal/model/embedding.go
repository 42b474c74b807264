package model

// EmbeddingRequestUnit is one document submitted for embedding. ID is echoed
// back unchanged and need not be unique.
type EmbeddingRequestUnit struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// EmbeddingResponseUnit carries one vector per chunk of the document.
type EmbeddingResponseUnit struct {
	ID         int64       `json:"id"`
	Embeddings [][]float32 `json:"embeddings"`
}

type EmbeddingResponse struct {
	NumberOfDocuments   int                     `json:"number_of_documents"`
	NumberOfChunkGroups int                     `json:"number_of_chunk_groups"`
	NumberOfChunks      int                     `json:"number_of_chunks"`
	TotalTimeMs         int64                   `json:"total_time_ms"`
	TimePerDocumentMs   int64                   `json:"time_per_document_ms"`
	Model               string                  `json:"model"`
	Embeddings          []EmbeddingResponseUnit `json:"embeddings"`
}

type ModelDescriptor struct {
	Name        string `json:"name"`
	Dimension   int    `json:"dimension"`
	Description string `json:"description"`
}
