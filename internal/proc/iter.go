// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import (
	"errors"
	"iter"

	"github.com/vk/procbridge/internal/engine"
)

// Vertices iterates over all vertices of a graph in storage order. It supports
// a single forward pass and cannot be restarted.
type Vertices struct {
	s stepper[engine.Vertex]
}

// Next returns the next vertex, Done at the end of the sequence, or
// ErrInvalidContext once the invocation has ended.
func (vs *Vertices) Next() (*Vertex, error) {
	h, err := vs.s.step()
	if err != nil {
		return nil, err
	}
	return newVertex(h, vs.s.lease), nil
}

// All adapts Next for use with range. A failure is yielded once, after which
// iteration stops.
func (vs *Vertices) All() iter.Seq2[*Vertex, error] {
	return drain(vs.Next)
}

// Edges iterates over the incoming or outgoing edges of one vertex.
type Edges struct {
	s stepper[engine.Edge]
}

func newEdges(v *Vertex, cur engine.EdgeCursor) *Edges {
	return &Edges{
		s: stepper[engine.Edge]{
			lease:   v.lease,
			invalid: ErrInvalidVertex,
			get:     cur.Get,
			next:    cur.Next,
		},
	}
}

// Next returns the next edge, Done at the end, or ErrInvalidVertex once the
// owning vertex has gone stale.
func (es *Edges) Next() (*Edge, error) {
	h, err := es.s.step()
	if err != nil {
		return nil, err
	}
	return newEdge(h, es.s.lease), nil
}

// All adapts Next for use with range.
func (es *Edges) All() iter.Seq2[*Edge, error] {
	return drain(es.Next)
}

// drain turns a Done-terminated next function into a range-over-func sequence.
func drain[T any](next func() (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, err := next()
			if errors.Is(err, Done) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}
