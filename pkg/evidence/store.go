// Package evidence implements the optional similarity-indexed document store
// backing the pipeline's prior-knowledge augmentation. Texts are chunked,
// embedded and stored in a pgvector collection.
package evidence

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/mikeboe/research-agent/pkg/database"
	"github.com/mikeboe/research-agent/pkg/embeddings"
	"github.com/mikeboe/research-agent/pkg/research"
	"github.com/mikeboe/research-agent/pkg/vectorstore"
)

// Store implements research.EvidenceStore on top of pgvector.
type Store struct {
	vectors  *vectorstore.PGVectorStore
	embedder *embeddings.GoogleEmbedder
	splitter textsplitter.TextSplitter
}

// New ensures the collection exists and returns a ready store.
func New(ctx context.Context, db *database.PostgresDB, embedder *embeddings.GoogleEmbedder, collection string, chunkSize, chunkOverlap int) (*Store, error) {
	if err := db.EnsureVectorExtension(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure vector extension: %w", err)
	}
	if err := db.CreateEmbeddingsTable(ctx, collection, embeddings.Dimension); err != nil {
		return nil, fmt.Errorf("failed to create collection table: %w", err)
	}

	vectors, err := vectorstore.NewPGVectorStore(db.Pool, collection)
	if err != nil {
		return nil, err
	}

	return &Store{
		vectors:  vectors,
		embedder: embedder,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}, nil
}

// Add chunks, embeds and stores each text with its metadata. metadatas must
// be the same length as texts.
func (s *Store) Add(ctx context.Context, texts []string, metadatas []map[string]any) error {
	if len(texts) != len(metadatas) {
		return fmt.Errorf("texts and metadatas length mismatch: %d vs %d", len(texts), len(metadatas))
	}

	var docs []vectorstore.Document
	for i, text := range texts {
		chunks, err := s.splitter.SplitText(text)
		if err != nil {
			return fmt.Errorf("failed to split text: %w", err)
		}

		vectors, err := s.embedder.EmbedTexts(ctx, chunks)
		if err != nil {
			return fmt.Errorf("failed to embed chunks: %w", err)
		}

		for j, chunk := range chunks {
			docs = append(docs, vectorstore.Document{
				Content:   chunk,
				Metadata:  metadatas[i],
				Embedding: vectors[j],
			})
		}
	}

	if len(docs) == 0 {
		return nil
	}
	return s.vectors.AddDocuments(ctx, docs)
}

// Query returns the k most similar stored documents to the text.
func (s *Store) Query(ctx context.Context, text string, k int) ([]research.EvidenceHit, error) {
	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.vectors.SimilaritySearch(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	hits := make([]research.EvidenceHit, len(results))
	for i, r := range results {
		hits[i] = research.EvidenceHit{
			Text:     r.Document.Content,
			Metadata: r.Document.Metadata,
			Distance: r.Distance,
		}
	}
	return hits, nil
}
