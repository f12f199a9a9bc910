// Package namespace manages the identity-keyed handles behind persistent
// execution state. A namespace is the set of variables and imported modules an
// interpreter worker accumulates across calls; this package owns the mapping
// from (owner, agent, session) identity to the live worker handle and
// serializes access so at most one writer is ever in flight per identity.
//
// The store never inspects handle contents. The execution engine (package
// code) supplies and replaces handles; callers obtain exclusive access via
// Acquire which queues behind any in-flight holder of the same identity.
package namespace
