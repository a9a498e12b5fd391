package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps known texts to fixed 3-dimensional vectors.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (s *stubEmbedder) Dimension() int { return 3 }

func newKnowledgeDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "knowledge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE chunks (id INTEGER PRIMARY KEY, content TEXT, source TEXT);
		CREATE VIRTUAL TABLE chunk_embeddings USING vec0(
			chunk_id INTEGER PRIMARY KEY,
			embedding float[3] distance_metric=cosine
		);
	`)
	require.NoError(t, err)

	insert := func(id int, content, source string, vec []float32) {
		data, err := json.Marshal(vec)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO chunks (id, content, source) VALUES (?, ?, ?)`, id, content, source)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO chunk_embeddings (chunk_id, embedding) VALUES (?, ?)`, id, string(data))
		require.NoError(t, err)
	}
	insert(1, "Attention is all you need.", "transformer.pdf", []float32{1, 0, 0})
	insert(2, "ReAct interleaves reasoning and acting.", "react.pdf", []float32{0, 1, 0})
	insert(3, "Chain of thought improves reasoning.", "cot.pdf", []float32{0.9, 0.1, 0})
	return db
}

func TestKnowledgeSearchRanksByDistance(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"what are transformers?": {1, 0, 0},
	}}
	ks := NewKnowledgeSearch(newKnowledgeDB(t), embedder, func(o *KnowledgeSearchOptions) {
		o.TopK = 2
	})

	result, err := ks.Call(testToolContext(), map[string]any{"query": "what are transformers?"})
	require.NoError(t, err)

	text := result.(string)
	assert.Contains(t, text, "Attention is all you need.")
	assert.Contains(t, text, "transformer.pdf")
	assert.Contains(t, text, "cot.pdf")
	// TopK 2 excludes the least similar chunk.
	assert.NotContains(t, text, "react.pdf")
	// The closest chunk comes first.
	assert.Less(t, strings.Index(text, "transformer.pdf"), strings.Index(text, "cot.pdf"))
}

func TestKnowledgeSearchSpec(t *testing.T) {
	ks := NewKnowledgeSearch(nil, &stubEmbedder{})
	assert.Equal(t, "knowledge_search", ks.Name())
	require.Contains(t, ks.Spec().Parameters, "query")
	assert.True(t, ks.Spec().Parameters["query"].Required)
}
