// Package registry maintains a dynamic set of callable tool stubs bound
// to a bridge invoker.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
	"github.com/ZanzyTHEbar/toolbridge/bridge/config"
	"github.com/armon/go-radix"
)

// ToolFunc is a generated stub: it forwards its input to the bridge under
// a fixed tool name.
type ToolFunc func(ctx context.Context, input map[string]any) (any, error)

// Registry holds injected tool stubs indexed by name. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	tree      *radix.Tree
	inv       ports.Invoker
	policy    *Policy
	validator *Validator
}

// Options tune stub injection.
type Options struct {
	Policy    *Policy
	Validator *Validator
}

// New creates an empty registry whose stubs call tools through inv.
func New(inv ports.Invoker, opts Options) *Registry {
	return &Registry{
		tree:      radix.New(),
		inv:       inv,
		policy:    opts.Policy,
		validator: opts.Validator,
	}
}

// NewFromConfig builds a registry with policy and argument validation
// taken from configuration. source may be nil when validation is off.
func NewFromConfig(inv ports.Invoker, source ports.SchemaSource, cfg *config.RegistryConfig) (*Registry, error) {
	opts := Options{
		Policy: NewPolicy(cfg.AllowedTools, cfg.DeniedTools),
	}
	if cfg.ValidateArgs {
		if source == nil {
			return nil, errors.New("argument validation requires a schema source")
		}
		opts.Validator = NewValidator(source)
	}
	return New(inv, opts), nil
}

// stub builds the ToolFunc for name. The closure captures only the name,
// so every stub stays valid as registry contents change.
func (r *Registry) stub(name string) ToolFunc {
	return func(ctx context.Context, input map[string]any) (any, error) {
		if r.validator != nil {
			if err := r.validator.Validate(ctx, name, input); err != nil {
				return nil, err
			}
		}
		return r.inv.CallTool(ctx, name, input)
	}
}

// Inject creates stubs for names and registers them. Names rejected by
// policy are skipped and reported; accepted names are registered even
// when others are rejected. Re-injecting a name replaces its stub.
func (r *Registry) Inject(names ...string) (map[string]ToolFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	injected := make(map[string]ToolFunc, len(names))
	var rejected []string

	for _, name := range names {
		if !r.policy.Allows(name) {
			rejected = append(rejected, name)
			continue
		}
		fn := r.stub(name)
		r.tree.Insert(name, fn)
		injected[name] = fn
	}

	if len(rejected) > 0 {
		return injected, &PolicyError{Rejected: rejected}
	}
	return injected, nil
}

// InjectDiscovered lists the tools the bridge exposes and injects them all.
func (r *Registry) InjectDiscovered(ctx context.Context, source ports.ToolLister) (map[string]ToolFunc, error) {
	names, err := source.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return r.Inject(names...)
}

// Lookup returns the stub registered under name.
func (r *Registry) Lookup(name string) (ToolFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.tree.Get(name)
	if !ok {
		return nil, false
	}
	return v.(ToolFunc), true
}

// Call invokes a registered stub by name.
func (r *Registry) Call(ctx context.Context, name string, input map[string]any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return fn(ctx, input)
}

// Names returns all registered names in lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, r.tree.Len())
	r.tree.Walk(func(s string, v any) bool {
		names = append(names, s)
		return false
	})
	return names
}

// NamesWithPrefix returns registered names sharing prefix, in
// lexicographic order.
func (r *Registry) NamesWithPrefix(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	r.tree.WalkPrefix(prefix, func(s string, v any) bool {
		names = append(names, s)
		return false
	})
	return names
}

// Len reports the number of registered stubs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Len()
}

// Remove drops a stub. It reports whether the name was registered.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, deleted := r.tree.Delete(name)
	return deleted
}

// UnknownToolError reports a call against a name with no registered stub.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %s is not registered", e.Name)
}
