package store

// Chunk is one indexed slice of a document, as produced by the ingestion side
type Chunk struct {
	Ordinal int     `json:"ordinal"`
	Page    int     `json:"page"`
	Text    string  `json:"text"`
	Score   float32 `json:"score,omitempty"`
}

// Document is the processed form of an uploaded file handed to the RAG pipeline.
// It is opaque to the dialogue layer.
type Document struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Chunks   []Chunk                `json:"chunks"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
