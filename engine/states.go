package engine

import "fmt"

// State is one phase of the orchestration machine. Per user turn the machine
// runs Answering → Deciding → Dispatching → Integrating → (Deciding |
// Terminated | Aborted); exactly one of the two exits is reached for any
// bounded input.
type State int

const (
	// StateAnswering generates the user-facing assistant reply.
	StateAnswering State = iota
	// StateDeciding runs the intention parser on the latest reply.
	StateDeciding
	// StateDispatching resolves and runs the parsed commands.
	StateDispatching
	// StateIntegrating folds tool results back into the transcript.
	StateIntegrating
	// StateTerminated is the sole success exit: the model emitted the
	// terminal sentinel with nothing left to run.
	StateTerminated
	// StateAborted means the round budget ran out with work still pending.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAnswering:
		return "answering"
	case StateDeciding:
		return "deciding"
	case StateDispatching:
		return "dispatching"
	case StateIntegrating:
		return "integrating"
	case StateTerminated:
		return "terminated"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome reports how one user turn ended.
type Outcome struct {
	// State is StateTerminated or StateAborted, nothing else.
	State State

	// Answer is the last assistant reply, the one the user should see.
	Answer string

	// Rounds counts completed dispatch/integrate cycles.
	Rounds int
}
