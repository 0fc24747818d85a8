package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/vk/procbridge/internal/signature"
)

var (
	// ErrNotFound is returned when a module or procedure does not exist.
	ErrNotFound = errors.New("procedure not found")
	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("already registered")
	// ErrInvalidName is returned for empty or dotted names.
	ErrInvalidName = errors.New("invalid name")
)

// Registry holds all modules and their procedures.
type Registry struct {
	mu         sync.RWMutex
	modules    map[string]*Module
	procedures map[string]*Procedure
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		modules:    make(map[string]*Module),
		procedures: make(map[string]*Procedure),
	}
}

// Module returns the module with the given name, creating it on first use.
func (r *Registry) Module(name string) (*Module, error) {
	if err := checkName(name); err != nil {
		return nil, fmt.Errorf("module %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[name]; ok {
		return m, nil
	}
	m := &Module{name: name, reg: r}
	r.modules[name] = m
	slog.Debug("Registering module.", "module", name)
	return m, nil
}

// Modules returns the module names in sorted order.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.modules))
}

// Lookup finds a procedure by its fully qualified "module.procedure" name.
func (r *Registry) Lookup(name string) (*Procedure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procedures[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// Procedures returns every registered procedure ordered by name.
func (r *Registry) Procedures() []*Procedure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Procedure, 0, len(r.procedures))
	for _, name := range slices.Sorted(maps.Keys(r.procedures)) {
		out = append(out, r.procedures[name])
	}
	return out
}

// Module is a named group of procedures. It implements signature.Target.
type Module struct {
	name string
	reg  *Registry
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// AddReadProcedure registers a read procedure in the module. The returned
// handle accepts the procedure's schema.
func (m *Module) AddReadProcedure(name string, invoke signature.Invoker) (signature.Handle, error) {
	if err := checkName(name); err != nil {
		return nil, fmt.Errorf("procedure %q: %w", name, err)
	}
	if invoke == nil {
		return nil, fmt.Errorf("procedure %q: no invoker", name)
	}
	fq := m.name + "." + name

	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()
	if _, exists := m.reg.procedures[fq]; exists {
		return nil, fmt.Errorf("procedure %q: %w", fq, ErrDuplicate)
	}
	p := &Procedure{module: m.name, name: name, invoke: invoke}
	m.reg.procedures[fq] = p
	slog.Debug("Registering read procedure.", "procedure", fq)
	return p, nil
}

// Procedures returns the procedures of this module ordered by name.
func (m *Module) Procedures() []*Procedure {
	prefix := m.name + "."
	var out []*Procedure
	for _, p := range m.reg.Procedures() {
		if strings.HasPrefix(p.Name(), prefix) {
			out = append(out, p)
		}
	}
	return out
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, ". \t\n") {
		return fmt.Errorf("%w: must not contain dots or whitespace", ErrInvalidName)
	}
	return nil
}
