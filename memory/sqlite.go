package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taskweave/taskweave/core"
)

// SQLiteStore is a durable core.MemoryStore persisting turns as ordered rows
// in a SQLite database. SQLite serializes writers, which gives the required
// one-writer-per-session append semantics; an insert either commits a whole
// turn or nothing.
type SQLiteStore struct {
	db *sql.DB
}

var _ core.MemoryStore = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS turns (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	turn_id      TEXT NOT NULL,
	role         TEXT NOT NULL,
	content      TEXT NOT NULL,
	tool_calls   TEXT,
	tool_call_id TEXT,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq);
`

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreFromDB wraps an existing database handle, ensuring the
// schema exists.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Append implements core.MemoryStore.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, turn core.Turn) error {
	var calls any
	if len(turn.ToolCalls) > 0 {
		data, err := json.Marshal(turn.ToolCalls)
		if err != nil {
			return fmt.Errorf("marshal tool calls: %w", err)
		}
		calls = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, turn_id, role, content, tool_calls, tool_call_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, turn.ID, string(turn.Role), turn.Content, calls, turn.ToolCallID, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Read implements core.MemoryStore. A positive window returns the most
// recent turns only, still in append order.
func (s *SQLiteStore) Read(ctx context.Context, sessionID string, window int) ([]core.Turn, error) {
	query := `SELECT turn_id, role, content, tool_calls, tool_call_id, created_at
		FROM turns WHERE session_id = ? ORDER BY seq`
	args := []any{sessionID}
	if window > 0 {
		query = `SELECT turn_id, role, content, tool_calls, tool_call_id, created_at FROM (
			SELECT seq, turn_id, role, content, tool_calls, tool_call_id, created_at
			FROM turns WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`
		args = append(args, window)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read session %q: %w", sessionID, err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var (
			turn       core.Turn
			role       string
			calls      sql.NullString
			toolCallID sql.NullString
			createdAt  time.Time
		)
		if err := rows.Scan(&turn.ID, &role, &turn.Content, &calls, &toolCallID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Role = core.Role(role)
		turn.ToolCallID = toolCallID.String
		turn.Timestamp = createdAt
		if calls.Valid && calls.String != "" {
			if err := json.Unmarshal([]byte(calls.String), &turn.ToolCalls); err != nil {
				return nil, fmt.Errorf("unmarshal tool calls: %w", err)
			}
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
