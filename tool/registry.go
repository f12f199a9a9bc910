package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agentloop/logging"
)

// Registry maps tool names to contracts. Names are unique per instance:
// Register rejects duplicates so two sources can never silently shadow each
// other, and Replace exists for the deliberate case.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *logging.LoopLogger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *logging.LoopLogger) *Registry {
	if logger == nil {
		logger = logging.NewLogger(nil)
	}
	return &Registry{tools: map[string]Tool{}, logger: logger.WithComponent("registry")}
}

// Register adds a tool. Registering a name twice is an error; use Replace
// when shadowing is intended.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	r.logger.Debug("tool registered name=%s kind=%s", t.Name(), t.Kind())
	return nil
}

// Replace installs a tool, overwriting any existing registration. The
// replacement is logged so conflicting sources stay visible.
func (r *Registry) Replace(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, exists := r.tools[t.Name()]; exists {
		r.logger.Warn("tool replaced name=%s old_kind=%s new_kind=%s", t.Name(), old.Kind(), t.Kind())
	}
	r.tools[t.Name()] = t
}

// Resolve returns the tool for a name, or *UnknownToolError.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return t, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch resolves, validates, and runs one invocation, awaiting any Task
// the tool hands back. Resolution and validation failures return typed errors
// the caller reports back to the model instead of crashing the round.
func (r *Registry) Dispatch(toolCtx *Context, name string, args map[string]any) (any, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	result, err := t.Call(toolCtx, args)
	if err != nil {
		return nil, err
	}
	if task, ok := result.(Task); ok {
		return task.Await(toolCtx)
	}
	return result, nil
}

// DocsText renders a plain-text catalogue of the registered tools for
// injection into the decision prompt.
func (r *Registry) DocsText() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		t := r.tools[name]
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
		if props, ok := t.Parameters()["properties"].(map[string]any); ok && len(props) > 0 {
			keys := make([]string, 0, len(props))
			for k := range props {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				desc := ""
				typ := ""
				if field, ok := props[k].(map[string]any); ok {
					desc, _ = field["description"].(string)
					typ, _ = field["type"].(string)
				}
				fmt.Fprintf(&b, "    %s (%s): %s\n", k, typ, desc)
			}
		}
	}
	return b.String()
}
