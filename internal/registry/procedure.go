package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vk/procbridge/internal/proc"
	"github.com/vk/procbridge/internal/signature"
	"github.com/zclconf/go-cty/cty"
)

// Arg is one declared argument of a registered procedure.
type Arg struct {
	Name    string
	Type    cty.Type
	Default *cty.Value
}

// Result is one declared result field of a registered procedure.
type Result struct {
	Name       string
	Type       cty.Type
	Deprecated bool
}

// Procedure is a registered read procedure. It implements signature.Handle
// while the binder fills in its schema.
type Procedure struct {
	module string
	name   string
	invoke signature.Invoker

	mu          sync.RWMutex
	description string
	args        []Arg
	results     []Result
}

// Name returns the fully qualified "module.procedure" name.
func (p *Procedure) Name() string {
	return p.module + "." + p.name
}

// Module returns the name of the owning module.
func (p *Procedure) Module() string {
	return p.module
}

// Description returns the human readable description, if any.
func (p *Procedure) Description() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.description
}

// Args returns the declared arguments in order.
func (p *Procedure) Args() []Arg {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Arg(nil), p.args...)
}

// Results returns the declared result fields in order. An empty list means
// the procedure declares no fixed result fields.
func (p *Procedure) Results() []Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Result(nil), p.results...)
}

// Invoke calls the procedure with positional arguments.
func (p *Procedure) Invoke(ctx *proc.Ctx, args []cty.Value) ([]signature.Row, error) {
	return p.invoke(ctx, args)
}

// String renders the signature, e.g.
// "echo.hello(required_arg :: any, optional_arg = null :: any) :: (result :: string)".
func (p *Procedure) String() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var b strings.Builder
	b.WriteString(p.Name())
	b.WriteString("(")
	for i, a := range p.args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		if a.Default != nil {
			b.WriteString(" = ")
			b.WriteString(formatValue(*a.Default))
		}
		b.WriteString(" :: ")
		b.WriteString(TypeName(a.Type))
	}
	b.WriteString(") :: (")
	for i, r := range p.results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.Name)
		b.WriteString(" :: ")
		b.WriteString(TypeName(r.Type))
		if r.Deprecated {
			b.WriteString(" (deprecated)")
		}
	}
	b.WriteString(")")
	return b.String()
}

// SetDescription implements the binder's optional description hook.
func (p *Procedure) SetDescription(d string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.description = d
}

// AddArg implements signature.Handle.
func (p *Procedure) AddArg(name string, ty cty.Type) error {
	return p.addArg(Arg{Name: name, Type: ty})
}

// AddOptArg implements signature.Handle.
func (p *Procedure) AddOptArg(name string, ty cty.Type, def cty.Value) error {
	return p.addArg(Arg{Name: name, Type: ty, Default: &def})
}

// AddResult implements signature.Handle.
func (p *Procedure) AddResult(name string, ty cty.Type) error {
	return p.addResult(Result{Name: name, Type: ty})
}

// AddDeprecatedResult implements signature.Handle.
func (p *Procedure) AddDeprecatedResult(name string, ty cty.Type) error {
	return p.addResult(Result{Name: name, Type: ty, Deprecated: true})
}

func (p *Procedure) addArg(a Arg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.args {
		if existing.Name == a.Name {
			return fmt.Errorf("argument %q: %w", a.Name, ErrDuplicate)
		}
	}
	p.args = append(p.args, a)
	return nil
}

func (p *Procedure) addResult(r Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.results {
		if existing.Name == r.Name {
			return fmt.Errorf("result %q: %w", r.Name, ErrDuplicate)
		}
	}
	p.results = append(p.results, r)
	return nil
}
