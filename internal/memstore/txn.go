// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package memstore

import (
	"sync"

	"github.com/tidwall/btree"
	"github.com/vk/procbridge/internal/engine"
	"github.com/vk/procbridge/internal/lease"
	"github.com/zclconf/go-cty/cty"
)

// Txn is a read transaction over a snapshot of the store. It implements
// engine.Graph for exactly one procedure invocation. Writes to the store after
// Begin are not visible through it.
type Txn struct {
	snapshot *btree.BTreeG[*vertex]
	epoch    *lease.Epoch

	mu      sync.Mutex
	cursors []*vertexCursor
}

// Begin opens a read transaction.
func (s *Store) Begin() *Txn {
	// Copy marks the tree shared, which is itself a write.
	s.mu.Lock()
	snapshot := s.vertices.Copy()
	s.mu.Unlock()

	return &Txn{
		snapshot: snapshot,
		epoch:    lease.New(),
	}
}

// Epoch returns the lease of this transaction.
func (t *Txn) Epoch() *lease.Epoch {
	return t.epoch
}

// IsValid reports whether the transaction is still open.
func (t *Txn) IsValid() bool {
	return t.epoch.IsValid()
}

// Close expires the transaction's lease and releases open cursors. It is safe
// to call more than once.
func (t *Txn) Close() {
	t.epoch.Expire()

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.cursors {
		c.release()
	}
	t.cursors = nil
}

// VertexByID implements engine.Graph.
func (t *Txn) VertexByID(id int64) (engine.Vertex, bool) {
	v, ok := t.snapshot.Get(&vertex{id: id})
	if !ok {
		return nil, false
	}
	return vertexHandle{v: v, t: t}, true
}

// IterVertices implements engine.Graph.
func (t *Txn) IterVertices() engine.VertexCursor {
	c := &vertexCursor{it: t.snapshot.Iter(), t: t}
	t.mu.Lock()
	t.cursors = append(t.cursors, c)
	t.mu.Unlock()
	return c
}

// endpoint resolves an edge endpoint in the snapshot. An edge reachable from
// the snapshot was added before it, and so were both of its endpoints.
func (t *Txn) endpoint(id int64) engine.Vertex {
	v, _ := t.snapshot.Get(&vertex{id: id})
	return vertexHandle{v: v, t: t}
}

type vertexCursor struct {
	it       btree.IterG[*vertex]
	t        *Txn
	started  bool
	valid    bool
	released bool
}

func (c *vertexCursor) current() (engine.Vertex, bool) {
	if !c.valid {
		c.release()
		return nil, false
	}
	return vertexHandle{v: c.it.Item(), t: c.t}, true
}

func (c *vertexCursor) Get() (engine.Vertex, bool) {
	if !c.started {
		c.started = true
		c.valid = !c.released && c.it.First()
	}
	return c.current()
}

func (c *vertexCursor) Next() (engine.Vertex, bool) {
	if !c.started {
		c.Get()
	}
	if c.valid {
		c.valid = c.it.Next()
	}
	return c.current()
}

func (c *vertexCursor) release() {
	if !c.released {
		c.released = true
		c.valid = false
		c.it.Release()
	}
}

// vertexHandle is the engine.Vertex handed out by a transaction.
type vertexHandle struct {
	v *vertex
	t *Txn
}

func (h vertexHandle) ID() int64 {
	return h.v.id
}

func (h vertexHandle) LabelsCount() int {
	return len(h.v.labels)
}

func (h vertexHandle) LabelAt(i int) string {
	return h.v.labels[i]
}

func (h vertexHandle) InEdges() engine.EdgeCursor {
	return &edgeCursor{edges: h.v.in, t: h.t}
}

func (h vertexHandle) OutEdges() engine.EdgeCursor {
	return &edgeCursor{edges: h.v.out, t: h.t}
}

func (h vertexHandle) Equal(other engine.Vertex) bool {
	o, ok := other.(vertexHandle)
	return ok && o.v == h.v
}

func (h vertexHandle) Property(name string) (cty.Value, bool) {
	return h.v.props.lookup(name)
}

func (h vertexHandle) PropertyCount() int {
	return len(h.v.props)
}

func (h vertexHandle) IterProperties() engine.PropertyCursor {
	return &propertyCursor{props: h.v.props}
}

// edgeHandle is the engine.Edge handed out by a transaction.
type edgeHandle struct {
	e *edge
	t *Txn
}

func (h edgeHandle) ID() int64 {
	return h.e.id
}

func (h edgeHandle) TypeName() string {
	return h.e.typ
}

func (h edgeHandle) From() engine.Vertex {
	return h.t.endpoint(h.e.from)
}

func (h edgeHandle) To() engine.Vertex {
	return h.t.endpoint(h.e.to)
}

func (h edgeHandle) Equal(other engine.Edge) bool {
	o, ok := other.(edgeHandle)
	return ok && o.e == h.e
}

func (h edgeHandle) Property(name string) (cty.Value, bool) {
	return h.e.props.lookup(name)
}

func (h edgeHandle) PropertyCount() int {
	return len(h.e.props)
}

func (h edgeHandle) IterProperties() engine.PropertyCursor {
	return &propertyCursor{props: h.e.props}
}

// edgeCursor walks a vertex's edge list as of the snapshot.
type edgeCursor struct {
	edges []*edge
	t     *Txn
	i     int
}

func (c *edgeCursor) Get() (engine.Edge, bool) {
	if c.i >= len(c.edges) {
		return nil, false
	}
	return edgeHandle{e: c.edges[c.i], t: c.t}, true
}

func (c *edgeCursor) Next() (engine.Edge, bool) {
	if c.i < len(c.edges) {
		c.i++
	}
	return c.Get()
}

// propertyCursor walks a property list as of the snapshot.
type propertyCursor struct {
	props propertyList
	i     int
}

func (c *propertyCursor) Get() (string, cty.Value, bool) {
	if c.i >= len(c.props) {
		return "", cty.NilVal, false
	}
	p := c.props[c.i]
	return p.Name, p.Value, true
}

func (c *propertyCursor) Next() (string, cty.Value, bool) {
	if c.i < len(c.props) {
		c.i++
	}
	return c.Get()
}
