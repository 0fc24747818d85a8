// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package signature

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// State is the registration state of a Binding.
type State int

const (
	Unregistered State = iota
	Validated
	Bound
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Validated:
		return "validated"
	case Bound:
		return "bound"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Row is one result row as handed back to the engine.
type Row map[string]cty.Value

// Invoker is the engine entry point of a bound procedure. The engine always
// passes the invocation context; args are positional and may omit trailing
// optional arguments.
type Invoker func(ctx *proc.Ctx, args []cty.Value) ([]Row, error)

// Target accepts bound read procedures. It is implemented by the module
// registry.
type Target interface {
	AddReadProcedure(name string, invoke Invoker) (Handle, error)
}

// Handle receives the schema of one procedure, in declaration order.
type Handle interface {
	AddArg(name string, ty cty.Type) error
	AddOptArg(name string, ty cty.Type, def cty.Value) error
	AddResult(name string, ty cty.Type) error
	AddDeprecatedResult(name string, ty cty.Type) error
}

// describer is implemented by handles that keep a procedure description.
type describer interface {
	SetDescription(string)
}

// Schema is the calling contract derived by Bind. It is immutable.
type Schema struct {
	Name        string
	Description string
	Args        []ArgSpec
	Results     *RecordSchema

	// TakesCtx reports whether the function receives the procedure context.
	TakesCtx bool
}

// Binding carries one function through registration.
type Binding struct {
	name  string
	fn    reflect.Value
	sig   Signature
	state State

	shape  resultShape
	schema *Schema
}

type resultShape int

const (
	returnsNothing resultShape = iota
	returnsRecord
	returnsRecordPtr
	returnsRecordSlice
)

// NewBinding starts the registration of fn under name.
func NewBinding(name string, fn any, sig Signature) *Binding {
	return &Binding{name: name, fn: reflect.ValueOf(fn), sig: sig}
}

// State returns the current registration state.
func (b *Binding) State() State {
	return b.state
}

// Schema returns the derived schema, or nil before Bind succeeded.
func (b *Binding) Schema() *Schema {
	return b.schema
}

// Validate inspects the function. It moves Unregistered to Validated.
func (b *Binding) Validate() error {
	if b.state != Unregistered {
		return fmt.Errorf("%w: procedure %q: cannot validate in state %s", ErrState, b.name, b.state)
	}
	if b.name == "" {
		return fmt.Errorf("%w: procedure has no name", ErrSchema)
	}
	if !b.fn.IsValid() || b.fn.Kind() != reflect.Func {
		return fmt.Errorf("%w: procedure %q: expected a function, got %s", ErrType, b.name, kindOf(b.fn))
	}
	if b.fn.IsNil() {
		return fmt.Errorf("%w: procedure %q: function is nil", ErrType, b.name)
	}

	ft := b.fn.Type()
	if ft.IsVariadic() {
		return fmt.Errorf("%w: procedure %q: variadic functions are not supported", ErrType, b.name)
	}
	for i := range ft.NumOut() {
		out := ft.Out(i)
		if out.Kind() == reflect.Chan {
			return fmt.Errorf("%w: procedure %q: results delivered through %s; procedures must return synchronously", ErrType, b.name, out)
		}
		if isSeq(out) {
			return fmt.Errorf("%w: procedure %q: lazy producers (%s) are not supported", ErrUnsupported, b.name, out)
		}
	}

	shape, err := shapeOf(ft)
	if err != nil {
		return fmt.Errorf("%w: procedure %q: %v", ErrType, b.name, err)
	}
	b.shape = shape
	b.state = Validated
	return nil
}

// Bind derives the schema, checks it against the function's parameters and
// hands it to target. It moves Validated to Bound.
func (b *Binding) Bind(ctx context.Context, target Target) (*Schema, error) {
	logger := ctxlog.FromContext(ctx).With("procedure", b.name)

	if b.state != Validated {
		return nil, fmt.Errorf("%w: procedure %q: cannot bind in state %s", ErrState, b.name, b.state)
	}
	if err := b.sig.check(); err != nil {
		return nil, fmt.Errorf("procedure %q: %w", b.name, err)
	}

	ft := b.fn.Type()
	takesCtx := ft.NumIn() > 0 && ft.In(0) == ctxType
	offset := 0
	if takesCtx {
		offset = 1
	}
	params := make([]reflect.Type, 0, ft.NumIn()-offset)
	for i := offset; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	if len(params) != len(b.sig.Args) {
		return nil, fmt.Errorf("%w: procedure %q: function takes %d arguments but %d are declared",
			ErrType, b.name, len(params), len(b.sig.Args))
	}

	args := make([]ArgSpec, len(b.sig.Args))
	seenOptional := ""
	for i, a := range b.sig.Args {
		if err := matchType(params[i], a.Type); err != nil {
			return nil, fmt.Errorf("%w: procedure %q, argument %q: %v", ErrType, b.name, a.Name, err)
		}
		if a.Default != nil {
			def, err := convert.Convert(*a.Default, a.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: procedure %q, argument %q: default is not a %s: %v",
					ErrType, b.name, a.Name, a.Type.FriendlyName(), err)
			}
			if _, err := decodeArg(def, a.Type, params[i]); err != nil {
				return nil, fmt.Errorf("%w: procedure %q, argument %q: default does not fit %s: %v",
					ErrType, b.name, a.Name, params[i], err)
			}
			a.Default = &def
			seenOptional = a.Name
		} else if seenOptional != "" {
			logger.Warn("Required argument follows an optional one; callers must pass every argument before it.",
				"argument", a.Name, "after", seenOptional)
		}
		args[i] = a
	}

	var results *RecordSchema
	if b.sig.Results != nil {
		results = &RecordSchema{Fields: append([]FieldSpec(nil), b.sig.Results.Fields...)}
	}

	schema := &Schema{
		Name:        b.name,
		Description: b.sig.Description,
		Args:        args,
		Results:     results,
		TakesCtx:    takesCtx,
	}

	handle, err := target.AddReadProcedure(b.name, b.invoker(schema, params))
	if err != nil {
		return nil, fmt.Errorf("registering procedure %q: %w", b.name, err)
	}
	if err := register(handle, schema); err != nil {
		return nil, fmt.Errorf("registering procedure %q: %w", b.name, err)
	}

	logger.Debug("Bound procedure.", "args", len(args), "takes_ctx", takesCtx, "declares_results", results != nil)
	b.schema = schema
	b.state = Bound
	return schema, nil
}

func register(h Handle, s *Schema) error {
	if d, ok := h.(describer); ok && s.Description != "" {
		d.SetDescription(s.Description)
	}
	for _, a := range s.Args {
		var err error
		if a.Default != nil {
			err = h.AddOptArg(a.Name, a.Type, *a.Default)
		} else {
			err = h.AddArg(a.Name, a.Type)
		}
		if err != nil {
			return fmt.Errorf("argument %q: %w", a.Name, err)
		}
	}
	if s.Results == nil {
		return nil
	}
	for _, f := range s.Results.Fields {
		var err error
		if f.Deprecated {
			err = h.AddDeprecatedResult(f.Name, f.Type)
		} else {
			err = h.AddResult(f.Name, f.Type)
		}
		if err != nil {
			return fmt.Errorf("result %q: %w", f.Name, err)
		}
	}
	return nil
}

// ReadProc validates and binds fn as a read procedure on target and returns
// fn unchanged, so it can still be called directly.
func ReadProc[F any](ctx context.Context, target Target, name string, fn F, sig Signature) (F, error) {
	b := NewBinding(name, fn, sig)
	if err := b.Validate(); err != nil {
		return fn, err
	}
	if _, err := b.Bind(ctx, target); err != nil {
		return fn, err
	}
	return fn, nil
}

// shapeOf classifies the results of a procedure function: an optional record
// value followed by an optional error.
func shapeOf(ft reflect.Type) (resultShape, error) {
	n := ft.NumOut()
	if n > 0 && ft.Out(n-1) == errorType {
		n--
	}
	switch n {
	case 0:
		return returnsNothing, nil
	case 1:
		switch ft.Out(0) {
		case recordType:
			return returnsRecord, nil
		case recordPtrType:
			return returnsRecordPtr, nil
		case recordSliceType:
			return returnsRecordSlice, nil
		}
		return 0, fmt.Errorf("must return proc.Record, *proc.Record or []proc.Record, got %s", ft.Out(0))
	default:
		return 0, fmt.Errorf("must return at most one record value and an error, got %d results", ft.NumOut())
	}
}

// isSeq reports whether t has the shape of iter.Seq or iter.Seq2.
func isSeq(t reflect.Type) bool {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 {
		return false
	}
	yield := t.In(0)
	return yield.Kind() == reflect.Func &&
		yield.NumOut() == 1 &&
		yield.Out(0).Kind() == reflect.Bool
}

func kindOf(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}
