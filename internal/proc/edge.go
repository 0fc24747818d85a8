// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import (
	"github.com/vk/procbridge/internal/engine"
	"github.com/vk/procbridge/internal/lease"
)

// EdgeType is the type of an Edge. It is a plain value and stays usable after
// the invocation ends.
type EdgeType struct {
	Name string
}

// Edge is an edge in the graph database.
//
// An Edge is only valid during the invocation that produced it; every method
// fails with ErrInvalidEdge afterwards.
type Edge struct {
	h     engine.Edge
	lease lease.Lease
}

func newEdge(h engine.Edge, l lease.Lease) *Edge {
	return &Edge{h: h, lease: l}
}

// IsValid reports whether the edge may still be used.
func (e *Edge) IsValid() bool {
	return e != nil && e.lease.IsValid()
}

func (e *Edge) check() error {
	if !e.IsValid() {
		return ErrInvalidEdge
	}
	return nil
}

// ID returns the engine id of the edge.
func (e *Edge) ID() (int64, error) {
	if err := e.check(); err != nil {
		return 0, err
	}
	return e.h.ID(), nil
}

// Type returns the edge type.
func (e *Edge) Type() (EdgeType, error) {
	if err := e.check(); err != nil {
		return EdgeType{}, err
	}
	return EdgeType{Name: e.h.TypeName()}, nil
}

// FromVertex returns a new proxy for the start vertex.
func (e *Edge) FromVertex() (*Vertex, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return newVertex(e.h.From(), e.lease), nil
}

// ToVertex returns a new proxy for the end vertex.
func (e *Edge) ToVertex() (*Vertex, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return newVertex(e.h.To(), e.lease), nil
}

// Properties returns a view over the properties of the edge.
func (e *Edge) Properties() (*Properties, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return &Properties{owner: e.h, lease: e.lease, invalid: ErrInvalidEdge}, nil
}

// Equal reports whether both proxies refer to the same engine edge.
func (e *Edge) Equal(other *Edge) (bool, error) {
	if err := e.check(); err != nil {
		return false, err
	}
	if other == nil {
		return false, nil
	}
	if err := other.check(); err != nil {
		return false, err
	}
	return e.h.Equal(other.h), nil
}
