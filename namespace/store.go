package namespace

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Identity keys a persistent namespace. SessionID may be empty for
// conversation-independent agent state.
type Identity struct {
	OwnerID   string
	AgentID   string
	SessionID string
}

// String renders the identity as owner/agent[/session] for logs and metrics.
func (id Identity) String() string {
	var b strings.Builder
	b.WriteString(id.OwnerID)
	b.WriteByte('/')
	b.WriteString(id.AgentID)
	if id.SessionID != "" {
		b.WriteByte('/')
		b.WriteString(id.SessionID)
	}
	return b.String()
}

// Validate rejects identities missing the mandatory components.
func (id Identity) Validate() error {
	if id.OwnerID == "" || id.AgentID == "" {
		return fmt.Errorf("namespace identity requires owner and agent: %q", id.String())
	}
	return nil
}

// Handle is an opaque resource bound to an identity, typically a live
// interpreter worker. Close must be idempotent.
type Handle interface {
	Close() error
}

// entry pairs the stored handle with a channel-based mutex so acquisition can
// respect context cancellation while still queueing fairly enough.
type entry struct {
	sem    chan struct{}
	handle Handle
}

// Store maps identities to handles and serializes per-identity access.
// Concurrent requests against the same identity queue; requests against
// different identities proceed independently. The zero value is not usable;
// construct with NewStore.
type Store struct {
	mu      sync.Mutex
	entries map[Identity]*entry
	closed  bool
}

// NewStore constructs an empty namespace store.
func NewStore() *Store {
	return &Store{entries: make(map[Identity]*entry)}
}

// Lease grants exclusive access to one identity's handle until Release.
type Lease struct {
	store    *Store
	identity Identity
	entry    *entry
	released bool
}

// Acquire blocks until the identity is free (or ctx is done) and returns a
// lease holding the per-identity lock. A nil handle inside the lease means no
// worker exists yet; the caller may install one with SetHandle.
func (s *Store) Acquire(ctx context.Context, id Identity) (*Lease, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("namespace store closed")
	}
	e, ok := s.entries[id]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		s.entries[id] = e
	}
	s.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return &Lease{store: s, identity: id, entry: e}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Handle returns the current handle for the leased identity (nil if none).
func (l *Lease) Handle() Handle { return l.entry.handle }

// SetHandle installs or replaces the identity's handle. Passing nil retires
// the handle without closing it; callers that kill a worker out-of-band use
// this to drop the dead reference.
func (l *Lease) SetHandle(h Handle) { l.entry.handle = h }

// Identity returns the leased identity.
func (l *Lease) Identity() Identity { return l.identity }

// Release returns the per-identity lock. Releasing twice is a no-op.
func (l *Lease) Release() {
	if l.released {
		return
	}
	l.released = true
	<-l.entry.sem
}

// Reset closes and removes the identity's handle. It queues behind any
// in-flight execution and is idempotent: resetting an absent namespace
// succeeds.
func (s *Store) Reset(ctx context.Context, id Identity) error {
	lease, err := s.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer lease.Release()

	if h := lease.Handle(); h != nil {
		lease.SetHandle(nil)
		return h.Close()
	}
	return nil
}

// VariableCounter is implemented by handles that can report how many names
// their namespace currently holds.
type VariableCounter interface {
	VariableCount() int
}

// Close tears down every handle. The store is unusable afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.entries = map[Identity]*entry{}
	s.mu.Unlock()

	var firstErr error
	for _, e := range entries {
		e.sem <- struct{}{} // wait out in-flight executions
		if e.handle != nil {
			if err := e.handle.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			e.handle = nil
		}
		<-e.sem
	}
	return firstErr
}
