// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import "fmt"

// Path is an alternating sequence of vertices and edges, built one edge at a
// time. Once built it is treated as a structural fact for the rest of the
// invocation: reading it does not re-validate the proxies it holds.
type Path struct {
	vertices []*Vertex
	edges    []*Edge
}

// NewPath starts a path at the given vertex.
func NewPath(start *Vertex) (*Path, error) {
	if !start.IsValid() {
		return nil, ErrInvalidVertex
	}
	return &Path{vertices: []*Vertex{start}}, nil
}

// Expand appends an edge continuing from the last vertex on the path. The other
// endpoint of the edge becomes the new last vertex.
func (p *Path) Expand(e *Edge) error {
	if !e.IsValid() {
		return ErrInvalidEdge
	}
	last := p.vertices[len(p.vertices)-1]

	from, err := e.FromVertex()
	if err != nil {
		return err
	}
	to, err := e.ToVertex()
	if err != nil {
		return err
	}

	startsHere, err := from.Equal(last)
	if err != nil {
		return err
	}
	endsHere, err := to.Equal(last)
	if err != nil {
		return err
	}

	var next *Vertex
	switch {
	case startsHere:
		next = to
	case endsHere:
		next = from
	default:
		return fmt.Errorf("%w: edge %d", ErrPathMismatch, e.h.ID())
	}

	p.edges = append(p.edges, e)
	p.vertices = append(p.vertices, next)
	return nil
}

// Vertices returns the vertices from the start to the end of the path.
func (p *Path) Vertices() []*Vertex {
	out := make([]*Vertex, len(p.vertices))
	copy(out, p.vertices)
	return out
}

// Edges returns the edges from the start to the end of the path.
func (p *Path) Edges() []*Edge {
	out := make([]*Edge, len(p.edges))
	copy(out, p.edges)
	return out
}

// Len returns the number of edges on the path.
func (p *Path) Len() int {
	return len(p.edges)
}
