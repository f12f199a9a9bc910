// Package core contains the shared domain contracts of agentloop: conversation
// turns and transcripts, the execution record envelope emitted for every tool
// call, and the store/sink interfaces implemented by the outer layers. Keeping
// the contracts here prevents higher level packages (engine, tools, stores)
// from depending on each other's concrete types.
package core
