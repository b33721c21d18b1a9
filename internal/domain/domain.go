package domain

// Chunk is a sentence-aligned segment of one document's text.
// ChunkID is 0-based and unique within the document's chunk sequence.
type Chunk struct {
	Text       string `json:"text"`
	CharCount  int    `json:"char_count"`
	ChunkID    int    `json:"chunk_id"`
	DocumentID string `json:"document_id,omitempty"`
}

// SearchResult is a chunk annotated with its relevance score for a query.
type SearchResult struct {
	Chunk
	Score float64 `json:"score"`
}

// Stats describes the current contents of the retrieval engine.
type Stats struct {
	TotalChunks     int `json:"total_chunks"`
	UniqueDocuments int `json:"unique_documents"`
}

// Retriever is the retrieval engine surface exposed to the API and TUI.
type Retriever interface {
	AddDocument(text, documentID string) int
	Search(query string, topK int) ([]SearchResult, error)
	GetRelevantContext(query string, topK int) (string, error)
	GetFullContext() string
	Stats() Stats
	Clear()
}
