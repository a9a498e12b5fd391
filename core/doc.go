// Package core provides the foundational domain types shared by the rest of
// TaskWeave. It defines:
//
//   - Turns (atomic units of conversation history) and ToolCalls
//   - ToolSpecs (schema-described capability advertisements)
//   - Sessions (ordered per-conversation turn logs)
//   - The MemoryStore interface for pluggable turn persistence
//   - Outcomes (structured results of one agent invocation)
//
// The package intentionally keeps implementation concerns (persistence, the
// loop engine, concrete tools, model backends) out of scope, exposing small
// types and interfaces so custom backends and stores can be plugged in.
package core
