// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import (
	"github.com/vk/procbridge/internal/engine"
	"github.com/vk/procbridge/internal/lease"
)

// Vertex is a vertex in the graph database.
//
// A Vertex is only valid during the invocation that produced it. Do not store
// it globally; every method fails with ErrInvalidVertex afterwards.
type Vertex struct {
	h     engine.Vertex
	lease lease.Lease
}

func newVertex(h engine.Vertex, l lease.Lease) *Vertex {
	return &Vertex{h: h, lease: l}
}

// IsValid reports whether the vertex may still be used.
func (v *Vertex) IsValid() bool {
	return v != nil && v.lease.IsValid()
}

func (v *Vertex) check() error {
	if !v.IsValid() {
		return ErrInvalidVertex
	}
	return nil
}

// ID returns the engine id of the vertex.
func (v *Vertex) ID() (int64, error) {
	if err := v.check(); err != nil {
		return 0, err
	}
	return v.h.ID(), nil
}

// Labels returns a view over the labels of the vertex.
func (v *Vertex) Labels() (*Labels, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	return &Labels{v: v}, nil
}

// Properties returns a view over the properties of the vertex.
func (v *Vertex) Properties() (*Properties, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	return &Properties{owner: v.h, lease: v.lease, invalid: ErrInvalidVertex}, nil
}

// InEdges returns a lazy iterator over edges ending at this vertex.
func (v *Vertex) InEdges() (*Edges, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	return newEdges(v, v.h.InEdges()), nil
}

// OutEdges returns a lazy iterator over edges starting at this vertex.
func (v *Vertex) OutEdges() (*Edges, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	return newEdges(v, v.h.OutEdges()), nil
}

// Equal reports whether both proxies refer to the same engine vertex. Comparing
// with a stale vertex is an error, not false.
func (v *Vertex) Equal(other *Vertex) (bool, error) {
	if err := v.check(); err != nil {
		return false, err
	}
	if other == nil {
		return false, nil
	}
	if err := other.check(); err != nil {
		return false, err
	}
	return v.h.Equal(other.h), nil
}
