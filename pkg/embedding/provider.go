package embedding

// Task types understood by the providers. Retrieval queries and stored
// documents are embedded with different task hints where the backend
// supports it.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)

	// GenerateBatch embeds several texts in order. Providers without a
	// native batch endpoint loop over Generate.
	GenerateBatch(texts []string, taskType string) ([][]float32, error)
}
