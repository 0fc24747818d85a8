// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import (
	"fmt"
	"log/slog"

	"github.com/vk/procbridge/internal/engine"
)

// Ctx is the context of a procedure being executed. It is only valid for the
// duration of a single invocation.
type Ctx struct {
	graph  *Graph
	logger *slog.Logger
	id     string
}

// NewCtx wraps the engine graph of one invocation. It is called by the engine
// side of the bridge; procedure code only ever receives a Ctx.
func NewCtx(g engine.Graph, logger *slog.Logger, invocationID string) *Ctx {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ctx{
		graph:  &Graph{g: g},
		logger: logger.With("invocation", invocationID),
		id:     invocationID,
	}
}

// IsValid reports whether the invocation is still running.
func (c *Ctx) IsValid() bool {
	return c.graph.IsValid()
}

// Graph returns the graph of the current invocation.
func (c *Ctx) Graph() (*Graph, error) {
	if !c.graph.IsValid() {
		return nil, ErrInvalidContext
	}
	return c.graph, nil
}

// Logger returns a logger tagged with the invocation id.
func (c *Ctx) Logger() *slog.Logger {
	return c.logger
}

// InvocationID identifies the current invocation in logs.
func (c *Ctx) InvocationID() string {
	return c.id
}

// Graph is the state of the graph database in the current invocation.
type Graph struct {
	g engine.Graph
}

// IsValid reports whether the graph may still be used.
func (g *Graph) IsValid() bool {
	return g.g.IsValid()
}

// VertexByID returns the vertex with the given id. It fails with
// ErrOutOfRange when the current snapshot has no such vertex.
func (g *Graph) VertexByID(id int64) (*Vertex, error) {
	if !g.IsValid() {
		return nil, ErrInvalidContext
	}
	h, ok := g.g.VertexByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: no vertex with id %d", ErrOutOfRange, id)
	}
	return newVertex(h, g.g), nil
}

// Vertices returns a forward-only iterator over every vertex in the graph.
func (g *Graph) Vertices() (*Vertices, error) {
	if !g.IsValid() {
		return nil, ErrInvalidContext
	}
	cur := g.g.IterVertices()
	return &Vertices{
		s: stepper[engine.Vertex]{
			lease:   g.g,
			invalid: ErrInvalidContext,
			get:     cur.Get,
			next:    cur.Next,
		},
	}, nil
}
