package tools

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "company.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT, department TEXT, salary REAL);
		INSERT INTO employees (name, department, salary) VALUES
			('Alice', 'Engineering', 95000),
			('Bob', 'Sales', 60000),
			('Carol', 'Engineering', 105000);
	`)
	require.NoError(t, err)
	return db
}

func TestSQLQuerySelectRendersTable(t *testing.T) {
	q := NewSQLQuery(newTestDB(t))

	result, err := q.Call(testToolContext(), map[string]any{
		"query": "SELECT name, department FROM employees ORDER BY name",
	})
	require.NoError(t, err)

	table := result.(string)
	assert.Contains(t, table, "| name | department |")
	assert.Contains(t, table, "| --- | --- |")
	assert.Contains(t, table, "| Alice | Engineering |")
	assert.Contains(t, table, "| Carol | Engineering |")
}

func TestSQLQueryEmptyResult(t *testing.T) {
	q := NewSQLQuery(newTestDB(t))

	result, err := q.Call(testToolContext(), map[string]any{
		"query": "SELECT name FROM employees WHERE salary > 1000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Query executed successfully, no results returned.", result)
}

func TestSQLQueryNullRendering(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec(`INSERT INTO employees (name, department) VALUES ('Dave', NULL)`)
	require.NoError(t, err)

	q := NewSQLQuery(db)
	result, err := q.Call(testToolContext(), map[string]any{
		"query": "SELECT name, department FROM employees WHERE name = 'Dave'",
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "| Dave | NULL |")
}

func TestSQLQueryWrite(t *testing.T) {
	db := newTestDB(t)
	q := NewSQLQuery(db)

	result, err := q.Call(testToolContext(), map[string]any{
		"query": "UPDATE employees SET salary = salary + 1000 WHERE department = 'Engineering'",
	})
	require.NoError(t, err)
	assert.Equal(t, "Query executed successfully. 2 rows affected.", result)
}

func TestSQLQueryInvalidSQL(t *testing.T) {
	q := NewSQLQuery(newTestDB(t))

	_, err := q.Call(testToolContext(), map[string]any{"query": "SELECT FROM nowhere"})
	assert.Error(t, err)
}

func TestIsReadQuery(t *testing.T) {
	assert.True(t, isReadQuery("SELECT 1"))
	assert.True(t, isReadQuery("  select * from t"))
	assert.True(t, isReadQuery("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.True(t, isReadQuery("PRAGMA table_info(employees)"))
	assert.True(t, isReadQuery("EXPLAIN SELECT 1"))
	assert.False(t, isReadQuery("INSERT INTO t VALUES (1)"))
	assert.False(t, isReadQuery("DROP TABLE t"))
}
