// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import (
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// Record is one result row produced by a procedure, keyed by result field
// name. Values may be Go scalars and collections, cty.Value, or graph proxies
// (*Vertex, *Edge, *Path).
type Record map[string]any

// Capsule types carry graph proxies through cty values, so they can be used as
// argument and result types.
var (
	VertexCapsule = cty.Capsule("vertex", reflect.TypeOf(Vertex{}))
	EdgeCapsule   = cty.Capsule("edge", reflect.TypeOf(Edge{}))
	PathCapsule   = cty.Capsule("path", reflect.TypeOf(Path{}))
)

// VertexVal encapsulates a vertex proxy.
func VertexVal(v *Vertex) cty.Value { return cty.CapsuleVal(VertexCapsule, v) }

// EdgeVal encapsulates an edge proxy.
func EdgeVal(e *Edge) cty.Value { return cty.CapsuleVal(EdgeCapsule, e) }

// PathVal encapsulates a path.
func PathVal(p *Path) cty.Value { return cty.CapsuleVal(PathCapsule, p) }

// Encapsulate wraps a graph proxy into its capsule value. It reports false for
// anything that is not a proxy.
func Encapsulate(v any) (cty.Value, bool) {
	switch x := v.(type) {
	case *Vertex:
		if x == nil {
			return cty.NullVal(VertexCapsule), true
		}
		return VertexVal(x), true
	case *Edge:
		if x == nil {
			return cty.NullVal(EdgeCapsule), true
		}
		return EdgeVal(x), true
	case *Path:
		if x == nil {
			return cty.NullVal(PathCapsule), true
		}
		return PathVal(x), true
	}
	return cty.NilVal, false
}
