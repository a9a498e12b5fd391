package tools

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/tool"
)

// SQLQuery executes SQL against a local SQLite database and renders results
// as a Markdown table the model can read back.
type SQLQuery struct {
	db *sql.DB
}

var _ tool.Tool = (*SQLQuery)(nil)

// NewSQLQuery constructs the tool around an existing database handle.
func NewSQLQuery(db *sql.DB) *SQLQuery { return &SQLQuery{db: db} }

// NewSQLQueryFromPath opens the SQLite database at path.
func NewSQLQueryFromPath(path string) (*SQLQuery, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	return &SQLQuery{db: db}, nil
}

// Name implements tool.Tool.
func (t *SQLQuery) Name() string { return "sql_query" }

// Spec implements tool.Tool.
func (t *SQLQuery) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name: "sql_query",
		Description: "Execute an SQL query against the company's SQLite database. The database " +
			"contains information about employees and departments. Provide a valid SQL query.",
		Parameters: map[string]core.Param{
			"query": {
				Type:        "string",
				Description: "The SQL query to execute",
				Required:    true,
			},
		},
	}
}

// Call implements tool.Tool.
func (t *SQLQuery) Call(tc *tool.Context, args map[string]any) (any, error) {
	query, _ := args["query"].(string)

	if !isReadQuery(query) {
		res, err := t.db.ExecContext(tc.Context(), query)
		if err != nil {
			return nil, fmt.Errorf("sql error: %w", err)
		}
		affected, _ := res.RowsAffected()
		return fmt.Sprintf("Query executed successfully. %d rows affected.", affected), nil
	}

	rows, err := t.db.QueryContext(tc.Context(), query)
	if err != nil {
		return nil, fmt.Errorf("sql error: %w", err)
	}
	defer rows.Close()

	table, err := renderMarkdownTable(rows)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return "Query executed successfully, no results returned.", nil
	}
	return table, nil
}

func isReadQuery(query string) bool {
	head := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(head, "SELECT") || strings.HasPrefix(head, "WITH") ||
		strings.HasPrefix(head, "PRAGMA") || strings.HasPrefix(head, "EXPLAIN")
}

// renderMarkdownTable formats a result set as a Markdown table, empty string
// when there are no rows.
func renderMarkdownTable(rows *sql.Rows) (string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("read columns: %w", err)
	}

	var lines []string
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("scan row: %w", err)
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatCell(v)
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}

	header := "| " + strings.Join(columns, " | ") + " |"
	separator := "| " + strings.Join(repeatCell("---", len(columns)), " | ") + " |"
	return strings.Join(append([]string{header, separator}, lines...), "\n"), nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func repeatCell(s string, n int) []string {
	cells := make([]string, n)
	for i := range cells {
		cells[i] = s
	}
	return cells
}
