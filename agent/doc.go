// Package agent implements the ReAct loop engine: the component that drives
// the Reason-Act-Observe cycle for one conversational invocation, dispatches
// tool calls through the registry, and coordinates an orchestrator with a
// team of specialists via the delegation tool and the role factory.
//
// One invocation is strictly iterative: a model call and the dispatch of its
// tool calls never overlap. Independent calls within one dispatch step run
// concurrently, but their observations are appended in original call order so
// correlation is preserved.
package agent
