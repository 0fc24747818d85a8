// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package memstore

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/tidwall/btree"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrDuplicateVertex is returned when a vertex id is already taken.
	ErrDuplicateVertex = errors.New("vertex already exists")
	// ErrVertexNotFound is returned when a write references an unknown vertex.
	ErrVertexNotFound = errors.New("vertex not found")
	// ErrEdgeNotFound is returned when a write references an unknown edge.
	ErrEdgeNotFound = errors.New("edge not found")
)

// Property is a named property value, as stored.
type Property struct {
	Name  string
	Value cty.Value
}

type propertyList []Property

func (pl propertyList) lookup(name string) (cty.Value, bool) {
	for _, p := range pl {
		if p.Name == name {
			return p.Value, true
		}
	}
	return cty.NilVal, false
}

// with returns a copy of the list with name set to value. Existing names keep
// their position; new names are appended.
func (pl propertyList) with(name string, value cty.Value) propertyList {
	out := slices.Clone(pl)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Property{Name: name, Value: value})
}

// vertex and edge values are immutable once they are reachable from the
// index. Writers publish modified copies, so a transaction keeps seeing the
// values its snapshot was taken from.
type vertex struct {
	id     int64
	labels []string
	props  propertyList
	in     []*edge
	out    []*edge
}

func (v *vertex) clone() *vertex {
	c := *v
	return &c
}

type edge struct {
	id    int64
	typ   string
	from  int64
	to    int64
	props propertyList
}

// Store holds the whole graph. All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	vertices *btree.BTreeG[*vertex]
	edges    map[int64]*edge
	nextEdge int64
}

func vertexLess(a, b *vertex) bool {
	return a.id < b.id
}

// New creates an empty store.
func New() *Store {
	return &Store{
		// Locking is done by Store.mu; the tree's own locks would make
		// abandoned iterators hold a read lock forever.
		vertices: btree.NewBTreeGOptions(vertexLess, btree.Options{NoLocks: true}),
		edges:    make(map[int64]*edge),
	}
}

func (s *Store) vertex(id int64) (*vertex, error) {
	v, ok := s.vertices.Get(&vertex{id: id})
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrVertexNotFound, id)
	}
	return v, nil
}

// AddVertex inserts a vertex with the given id, labels and properties.
func (s *Store) AddVertex(id int64, labels []string, props ...Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vertices.Get(&vertex{id: id}); ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateVertex, id)
	}
	var pl propertyList
	for _, p := range props {
		pl = pl.with(p.Name, p.Value)
	}
	s.vertices.Set(&vertex{
		id:     id,
		labels: slices.Clone(labels),
		props:  pl,
	})
	return nil
}

// AddEdge inserts an edge between two existing vertices and returns its id.
// Edge ids are assigned sequentially starting at 1.
func (s *Store) AddEdge(from, to int64, typ string, props ...Property) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.vertex(from)
	if err != nil {
		return 0, fmt.Errorf("edge start: %w", err)
	}
	dst, err := s.vertex(to)
	if err != nil {
		return 0, fmt.Errorf("edge end: %w", err)
	}

	s.nextEdge++
	e := &edge{id: s.nextEdge, typ: typ, from: from, to: to}
	for _, p := range props {
		e.props = e.props.with(p.Name, p.Value)
	}

	src = src.clone()
	src.out = append(slices.Clip(src.out), e)
	if from == to {
		dst = src
	} else {
		dst = dst.clone()
	}
	dst.in = append(slices.Clip(dst.in), e)
	s.vertices.Set(src)
	s.vertices.Set(dst)
	s.edges[e.id] = e
	return e.id, nil
}

// SetVertexProperty sets (or adds) a property on an existing vertex.
func (s *Store) SetVertexProperty(id int64, name string, value cty.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vertex(id)
	if err != nil {
		return err
	}
	v = v.clone()
	v.props = v.props.with(name, value)
	s.vertices.Set(v)
	return nil
}

// SetEdgeProperty sets (or adds) a property on an existing edge.
func (s *Store) SetEdgeProperty(id int64, name string, value cty.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.edges[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrEdgeNotFound, id)
	}
	e := *old
	e.props = e.props.with(name, value)

	src, err := s.vertex(e.from)
	if err != nil {
		return err
	}
	src = src.clone()
	src.out = replaceEdge(src.out, old, &e)
	dst := src
	if e.to != e.from {
		if dst, err = s.vertex(e.to); err != nil {
			return err
		}
		dst = dst.clone()
	}
	dst.in = replaceEdge(dst.in, old, &e)
	s.vertices.Set(src)
	s.vertices.Set(dst)
	s.edges[id] = &e
	return nil
}

// replaceEdge returns a copy of edges with old swapped for e.
func replaceEdge(edges []*edge, old, e *edge) []*edge {
	out := slices.Clone(edges)
	for i := range out {
		if out[i] == old {
			out[i] = e
		}
	}
	return out
}

// AddLabel appends a label to an existing vertex unless it is already present.
func (s *Store) AddLabel(id int64, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vertex(id)
	if err != nil {
		return err
	}
	if slices.Contains(v.labels, label) {
		return nil
	}
	v = v.clone()
	v.labels = append(slices.Clip(v.labels), label)
	s.vertices.Set(v)
	return nil
}

// VertexCount returns the number of vertices.
func (s *Store) VertexCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vertices.Len()
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}
