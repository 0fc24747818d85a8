// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package engine declares the shapes this bridge consumes from the
// query-execution engine. Handles are non-owning: dropping one never frees
// engine memory, and none of them may be used once the Graph's lease expires.
// Implementations are free to panic or return garbage when used after expiry;
// the proxies in package proc guarantee that never happens.
package engine

import (
	"github.com/vk/procbridge/internal/lease"
	"github.com/zclconf/go-cty/cty"
)

// Graph is the engine's view of the graph for one invocation. Its IsValid
// method is the invocation's lease.
type Graph interface {
	lease.Lease

	// VertexByID returns the vertex with the given id in the current snapshot,
	// or false when no such vertex exists.
	VertexByID(id int64) (Vertex, bool)

	// IterVertices returns a cursor positioned at the first vertex in storage
	// order.
	IterVertices() VertexCursor
}

// PropertyHolder is implemented by vertices and edges.
type PropertyHolder interface {
	// Property returns the named property value and whether it exists.
	Property(name string) (cty.Value, bool)

	// PropertyCount returns the number of properties currently stored.
	PropertyCount() int

	// IterProperties returns a cursor over properties in storage order.
	IterProperties() PropertyCursor
}

// Vertex is an opaque vertex handle.
type Vertex interface {
	PropertyHolder

	ID() int64
	LabelsCount() int
	// LabelAt returns the label at index i. Callers bounds-check first.
	LabelAt(i int) string
	InEdges() EdgeCursor
	OutEdges() EdgeCursor

	// Equal reports whether both handles refer to the same engine vertex.
	Equal(other Vertex) bool
}

// Edge is an opaque edge handle.
type Edge interface {
	PropertyHolder

	ID() int64
	TypeName() string
	From() Vertex
	To() Vertex

	// Equal reports whether both handles refer to the same engine edge.
	Equal(other Edge) bool
}

// VertexCursor walks vertices one at a time. Get returns the current element;
// Next advances and returns the new current element. Both report false once
// the cursor is exhausted.
type VertexCursor interface {
	Get() (Vertex, bool)
	Next() (Vertex, bool)
}

// EdgeCursor walks edges one at a time, see VertexCursor.
type EdgeCursor interface {
	Get() (Edge, bool)
	Next() (Edge, bool)
}

// PropertyCursor walks (name, value) pairs one at a time, see VertexCursor.
type PropertyCursor interface {
	Get() (string, cty.Value, bool)
	Next() (string, cty.Value, bool)
}
