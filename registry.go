package jsonrpc

import (
	"context"
	"sort"
	"strings"
	"sync"
)

/* =========================
   Method registry
   - one Registry per connection type, owned by its endpoint
   - registration happens at startup; the RWMutex keeps a late
     Register safe, but registering during live traffic is unsupported
   - last registration for a name wins, silently
   ========================= */

// Call carries the destructured params of one invocation: positional Args or
// keyed Kwargs, never both. Handlers destructure it themselves.
type Call struct {
	Args   []any
	Kwargs map[string]any
}

// Handler is the uniform method signature. The returned value must be
// JSON-serializable; a returned error becomes an Application Error response.
type Handler func(ctx context.Context, call *Call) (any, error)

type Registry struct {
	name string

	mu      sync.RWMutex
	methods map[string]Handler
}

func NewRegistry(name string) *Registry {
	return &Registry{
		name:    name,
		methods: make(map[string]Handler),
	}
}

// Name identifies the connection type this registry belongs to. Used for
// logging only.
func (r *Registry) Name() string { return r.name }

// Register binds name to handler. Registering the same name twice replaces
// the previous handler without complaint.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	r.methods[name] = h
	r.mu.Unlock()
}

// Lookup resolves name to its handler. Names starting with "_" are private
// and report not-found even when registered, so callers cannot probe them.
func (r *Registry) Lookup(name string) (Handler, bool) {
	if strings.HasPrefix(name, "_") {
		return nil, false
	}
	r.mu.RLock()
	h, ok := r.methods[name]
	r.mu.RUnlock()
	return h, ok
}

// Methods returns the registered method names, sorted.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
