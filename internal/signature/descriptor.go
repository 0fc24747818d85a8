// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package signature

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ArgSpec declares one procedure argument.
type ArgSpec struct {
	Name        string
	Type        cty.Type
	Description string

	// Default is the value used when the caller omits the argument. A nil
	// Default makes the argument required.
	Default *cty.Value
}

// Optional reports whether the argument carries a default.
func (a ArgSpec) Optional() bool {
	return a.Default != nil
}

// Required declares an argument the caller must supply.
func Required(name string, ty cty.Type) ArgSpec {
	return ArgSpec{Name: name, Type: ty}
}

// Optional declares an argument that falls back to def when omitted.
func Optional(name string, ty cty.Type, def cty.Value) ArgSpec {
	return ArgSpec{Name: name, Type: ty, Default: &def}
}

// FieldSpec declares one field of a result record.
type FieldSpec struct {
	Name        string
	Type        cty.Type
	Description string
	Deprecated  bool
}

// Field declares a result field.
func Field(name string, ty cty.Type) FieldSpec {
	return FieldSpec{Name: name, Type: ty}
}

// DeprecatedField declares a result field that is still produced but should
// no longer be relied upon.
func DeprecatedField(name string, ty cty.Type) FieldSpec {
	return FieldSpec{Name: name, Type: ty, Deprecated: true}
}

// RecordSchema is the ordered list of fields of every record a procedure
// returns.
type RecordSchema struct {
	Fields []FieldSpec
}

// Returns declares the result record of a procedure.
func Returns(fields ...FieldSpec) *RecordSchema {
	return &RecordSchema{Fields: fields}
}

// Field returns the named field.
func (r *RecordSchema) Field(name string) (FieldSpec, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Signature is the declared calling contract of a procedure.
type Signature struct {
	Description string
	Args        []ArgSpec

	// Results lists the fields of the returned records. When nil, the
	// procedure declares no fixed result fields and records are passed
	// through unchecked.
	Results *RecordSchema
}

// check validates the descriptors themselves, independent of any function.
func (s Signature) check() error {
	seen := make(map[string]struct{}, len(s.Args))
	for i, a := range s.Args {
		if a.Name == "" {
			return fmt.Errorf("%w: argument %d has no name", ErrSchema, i)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("%w: duplicate argument %q", ErrSchema, a.Name)
		}
		seen[a.Name] = struct{}{}
		if a.Type == cty.NilType {
			return fmt.Errorf("%w: argument %q has no type", ErrSchema, a.Name)
		}
	}
	if s.Results == nil {
		return nil
	}
	clear(seen)
	for i, f := range s.Results.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: result field %d has no name", ErrSchema, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate result field %q", ErrSchema, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Type == cty.NilType {
			return fmt.Errorf("%w: result field %q has no type", ErrSchema, f.Name)
		}
	}
	return nil
}
