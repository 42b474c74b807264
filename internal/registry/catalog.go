package registry

import "github.com/xxxsen/embedserver/internal/model"

const (
	BackendTEI    = "tei"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendOllama = "ollama"
)

// CatalogEntry is a known model. Backend names the configured inference backend
// that serves it and RemoteModel the id that backend expects, defaulting to
// Name.
type CatalogEntry struct {
	Name        string
	Dimension   int
	Description string
	Backend     string
	RemoteModel string
}

func (e CatalogEntry) Descriptor() model.ModelDescriptor {
	return model.ModelDescriptor{
		Name:        e.Name,
		Dimension:   e.Dimension,
		Description: e.Description,
	}
}

func (e CatalogEntry) remoteModel() string {
	if e.RemoteModel != "" {
		return e.RemoteModel
	}
	return e.Name
}

var defaultCatalog = []CatalogEntry{
	{Name: "BAAI/bge-base-en-v1.5", Dimension: 768, Description: "Base English model, v1.5", Backend: BackendTEI},
	{Name: "BAAI/bge-small-en-v1.5", Dimension: 384, Description: "Fast and default English model", Backend: BackendTEI},
	{Name: "BAAI/bge-large-en-v1.5", Dimension: 1024, Description: "Large English model, v1.5", Backend: BackendTEI},
	{Name: "sentence-transformers/all-MiniLM-L6-v2", Dimension: 384, Description: "Sentence Transformer model, MiniLM-L6-v2", Backend: BackendTEI},
	{Name: "sentence-transformers/paraphrase-MiniLM-L12-v2", Dimension: 384, Description: "Sentence Transformer model, paraphrase-MiniLM-L12-v2", Backend: BackendTEI},
	{Name: "nomic-ai/nomic-embed-text-v1.5", Dimension: 768, Description: "v1.5 release of the 8192 context length english model", Backend: BackendTEI},
	{Name: "intfloat/multilingual-e5-large", Dimension: 1024, Description: "Large multilingual embedding model from Microsoft", Backend: BackendTEI},
	{Name: "mixedbread-ai/mxbai-embed-large-v1", Dimension: 1024, Description: "Large English embedding model from MixedBreed.ai", Backend: BackendTEI},
	{Name: "text-embedding-3-small", Dimension: 1536, Description: "OpenAI small embedding model", Backend: BackendOpenAI},
	{Name: "text-embedding-3-large", Dimension: 3072, Description: "OpenAI large embedding model", Backend: BackendOpenAI},
	{Name: "text-embedding-ada-002", Dimension: 1536, Description: "OpenAI second generation embedding model", Backend: BackendOpenAI},
	{Name: "text-embedding-004", Dimension: 768, Description: "Gemini text embedding model", Backend: BackendGemini},
	{Name: "gemini-embedding-001", Dimension: 3072, Description: "Gemini embedding model", Backend: BackendGemini},
	{Name: "nomic-embed-text", Dimension: 768, Description: "Nomic text embedding served by Ollama", Backend: BackendOllama},
	{Name: "mxbai-embed-large", Dimension: 1024, Description: "mxbai large embedding served by Ollama", Backend: BackendOllama},
	{Name: "all-minilm", Dimension: 384, Description: "MiniLM sentence embedding served by Ollama", Backend: BackendOllama},
}

// DefaultCatalog returns a copy of the built-in catalog.
func DefaultCatalog() []CatalogEntry {
	out := make([]CatalogEntry, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}
