// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package signature

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// invoker builds the engine entry point for a bound function.
func (b *Binding) invoker(s *Schema, params []reflect.Type) Invoker {
	fn := b.fn
	shape := b.shape
	returnsErr := fn.Type().NumOut() > 0 && fn.Type().Out(fn.Type().NumOut()-1) == errorType

	return func(pctx *proc.Ctx, args []cty.Value) ([]Row, error) {
		if len(args) > len(s.Args) {
			return nil, fmt.Errorf("%w: procedure %q takes at most %d arguments, got %d",
				ErrArgument, s.Name, len(s.Args), len(args))
		}

		in := make([]reflect.Value, 0, len(params)+1)
		if s.TakesCtx {
			in = append(in, reflect.ValueOf(pctx))
		}
		for i, spec := range s.Args {
			var val cty.Value
			switch {
			case i < len(args):
				val = args[i]
			case spec.Default != nil:
				val = *spec.Default
			default:
				return nil, fmt.Errorf("%w: procedure %q: missing required argument %q",
					ErrArgument, s.Name, spec.Name)
			}
			rv, err := decodeArg(val, spec.Type, params[i])
			if err != nil {
				return nil, fmt.Errorf("%w: procedure %q, argument %q: %v", ErrArgument, s.Name, spec.Name, err)
			}
			in = append(in, rv)
		}

		out := fn.Call(in)
		if returnsErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return nil, err
			}
		}

		records := collect(shape, out)
		rows := make([]Row, 0, len(records))
		for i, rec := range records {
			row, err := s.row(rec)
			if err != nil {
				return nil, fmt.Errorf("%w: procedure %q, record %d: %v", ErrResult, s.Name, i, err)
			}
			rows = append(rows, row)
		}
		return rows, nil
	}
}

func collect(shape resultShape, out []reflect.Value) []proc.Record {
	switch shape {
	case returnsRecord:
		rec := out[0].Interface().(proc.Record)
		if rec == nil {
			return nil
		}
		return []proc.Record{rec}
	case returnsRecordPtr:
		rec := out[0].Interface().(*proc.Record)
		if rec == nil || *rec == nil {
			return nil
		}
		return []proc.Record{*rec}
	case returnsRecordSlice:
		return out[0].Interface().([]proc.Record)
	}
	return nil
}

// row converts a record into a row, checking it against the declared result
// fields when there are any. Declared fields missing from the record are null.
func (s *Schema) row(rec proc.Record) (Row, error) {
	row := make(Row, len(rec))
	for name, v := range rec {
		val, err := toCtyValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		row[name] = val
	}
	if s.Results == nil {
		return row, nil
	}

	for _, name := range slices.Sorted(maps.Keys(row)) {
		if _, ok := s.Results.Field(name); !ok {
			return nil, fmt.Errorf("field %q is not declared", name)
		}
	}
	for _, f := range s.Results.Fields {
		val, ok := row[f.Name]
		if !ok || val.IsNull() {
			row[f.Name] = cty.NullVal(f.Type)
			continue
		}
		if f.Type.Equals(cty.DynamicPseudoType) {
			continue
		}
		converted, err := convert.Convert(val, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: cannot convert %s to %s: %w",
				f.Name, val.Type().FriendlyName(), f.Type.FriendlyName(), err)
		}
		row[f.Name] = converted
	}
	return row, nil
}
