package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/tool"
)

func init() {
	// Auto-register the sqlite-vec extension on every new connection.
	sqlite_vec.Auto()
}

// Embedder turns text into a vector for semantic retrieval. Implementations
// typically call a hosted embedding API.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the vector width produced by Embed.
	Dimension() int
}

// KnowledgeSearchOptions configure the knowledge base tool.
type KnowledgeSearchOptions struct {
	// TopK is the number of chunks retrieved per query.
	TopK int
}

// KnowledgeSearch performs semantic search over a local knowledge base of
// document chunks stored in SQLite with an sqlite-vec virtual table. The
// index is built offline; this tool only reads it.
//
// Expected schema:
//
//	CREATE TABLE chunks (id INTEGER PRIMARY KEY, content TEXT, source TEXT);
//	CREATE VIRTUAL TABLE chunk_embeddings USING vec0(
//		chunk_id INTEGER PRIMARY KEY,
//		embedding float[<dim>] distance_metric=cosine
//	);
type KnowledgeSearch struct {
	db       *sql.DB
	embedder Embedder
	topK     int
}

var _ tool.Tool = (*KnowledgeSearch)(nil)

// NewKnowledgeSearch constructs the tool around an existing database handle
// and embedder.
func NewKnowledgeSearch(db *sql.DB, embedder Embedder, optFns ...func(o *KnowledgeSearchOptions)) *KnowledgeSearch {
	opts := KnowledgeSearchOptions{TopK: 3}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &KnowledgeSearch{db: db, embedder: embedder, topK: opts.TopK}
}

// Name implements tool.Tool.
func (t *KnowledgeSearch) Name() string { return "knowledge_search" }

// Spec implements tool.Tool.
func (t *KnowledgeSearch) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name: "knowledge_search",
		Description: "Find information about Large Language Models, Agentic AI and related " +
			"topics in a specialized knowledge base of scientific papers. Provide a clear, " +
			"specific question.",
		Parameters: map[string]core.Param{
			"query": {
				Type:        "string",
				Description: "The question to search the knowledge base for",
				Required:    true,
			},
		},
	}
}

// Call implements tool.Tool.
func (t *KnowledgeSearch) Call(tc *tool.Context, args map[string]any) (any, error) {
	query, _ := args["query"].(string)

	embedding, err := t.embedder.Embed(tc.Context(), query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vec, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("marshal query embedding: %w", err)
	}

	rows, err := t.db.QueryContext(tc.Context(), `
		SELECT c.content, c.source, e.distance
		FROM chunk_embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		WHERE e.embedding MATCH ? AND e.k = ?
		ORDER BY e.distance`,
		string(vec), t.topK)
	if err != nil {
		return nil, fmt.Errorf("knowledge base query: %w", err)
	}
	defer rows.Close()

	var sections []string
	for rows.Next() {
		var (
			content  string
			source   sql.NullString
			distance float64
		)
		if err := rows.Scan(&content, &source, &distance); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		sections = append(sections, fmt.Sprintf(
			"Source: %s (distance %.3f)\n%s", source.String, distance, content))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(sections) == 0 {
		return "No relevant information found in the knowledge base.", nil
	}
	return strings.Join(sections, "\n---\n"), nil
}
