// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package signature

import (
	"fmt"
	"reflect"

	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	ctxType      = reflect.TypeOf((*proc.Ctx)(nil))
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	ctyValueType = reflect.TypeOf(cty.Value{})

	recordType      = reflect.TypeOf(proc.Record(nil))
	recordPtrType   = reflect.PointerTo(recordType)
	recordSliceType = reflect.TypeOf([]proc.Record(nil))

	capsuleGoTypes = map[reflect.Type]cty.Type{
		reflect.TypeOf((*proc.Vertex)(nil)): proc.VertexCapsule,
		reflect.TypeOf((*proc.Edge)(nil)):   proc.EdgeCapsule,
		reflect.TypeOf((*proc.Path)(nil)):   proc.PathCapsule,
	}
)

// matchType checks that a value of the declared type can be decoded into a Go
// parameter of type goType.
func matchType(goType reflect.Type, declared cty.Type) error {
	if goType == ctyValueType {
		return nil
	}
	if capsule, ok := capsuleGoTypes[goType]; ok {
		if !declared.Equals(capsule) {
			return fmt.Errorf("declared type %s cannot be passed as %s", declared.FriendlyName(), goType)
		}
		return nil
	}
	if declared.IsCapsuleType() {
		return fmt.Errorf("declared type %s requires a graph proxy parameter, got %s", declared.FriendlyName(), goType)
	}
	if declared.Equals(cty.DynamicPseudoType) {
		return fmt.Errorf("type 'any' requires a cty.Value parameter, got %s", goType)
	}

	if goType.Kind() == reflect.Interface {
		return fmt.Errorf("declared type %s cannot be decoded into interface parameter %s", declared.FriendlyName(), goType)
	}

	implied, err := gocty.ImpliedType(reflect.Zero(goType).Interface())
	if err != nil {
		return fmt.Errorf("could not imply cty type from Go type %s: %w", goType, err)
	}
	if !declared.Equals(implied) {
		return fmt.Errorf("declared type %s but Go parameter %s provides %s",
			declared.FriendlyName(), goType, implied.FriendlyName())
	}
	return nil
}

// decodeArg converts val to the declared type and then into a Go value of
// type goType.
func decodeArg(val cty.Value, declared cty.Type, goType reflect.Type) (reflect.Value, error) {
	if !declared.Equals(cty.DynamicPseudoType) {
		converted, err := convert.Convert(val, declared)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot convert %s to required type %s: %w",
				val.Type().FriendlyName(), declared.FriendlyName(), err)
		}
		val = converted
	}

	if goType == ctyValueType {
		return reflect.ValueOf(val), nil
	}
	if _, ok := capsuleGoTypes[goType]; ok {
		if val.IsNull() {
			return reflect.Zero(goType), nil
		}
		if !val.IsKnown() {
			return reflect.Value{}, fmt.Errorf("value of type %s is not known", val.Type().FriendlyName())
		}
		return reflect.ValueOf(val.EncapsulatedValue()), nil
	}

	target := reflect.New(goType)
	if err := gocty.FromCtyValue(val, target.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return target.Elem(), nil
}

// toCtyValue converts one record value into a cty.Value. Graph proxies become
// capsule values; untyped slices and maps become tuples and objects.
func toCtyValue(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return x, nil
	case []any:
		elems := make([]cty.Value, len(x))
		for i, e := range x {
			ev, err := toCtyValue(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(x))
		for k, e := range x {
			ev, err := toCtyValue(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	}
	if val, ok := proc.Encapsulate(v); ok {
		return val, nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}
