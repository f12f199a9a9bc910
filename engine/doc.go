// Package engine implements the orchestration state machine that drives one
// conversation: the primary model answers, a decision model picks tools, the
// registry dispatches them, and results are folded back into the transcript
// until the model signals it is done or the round budget runs out.
package engine
