// Package code executes model-authored Python inside persistent, isolated
// namespaces. Each owner/agent identity gets its own long-lived interpreter
// process whose variables survive across calls; a static policy scan plus a
// runtime import guard keep the sandbox honest, and wall-clock timeouts kill
// the whole process group when code runs away.
package code
