// Package memory provides core.MemoryStore implementations: a volatile
// in-memory store for tests and ephemeral sessions, and a SQLite-backed
// store for durable conversation history.
package memory
