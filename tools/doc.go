// Package tools provides the built-in capability tools: web search, webpage
// browsing, SQL queries against a local database, semantic knowledge-base
// retrieval and a small calculator. Each implements the tool.Tool contract
// and is registered with a tool.Registry at startup.
package tools
