// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import "errors"

var (
	// ErrInvalidVertex signals use of a Vertex outside its procedure context.
	ErrInvalidVertex = errors.New("vertex is not valid in the current procedure context")
	// ErrInvalidEdge signals use of an Edge outside its procedure context.
	ErrInvalidEdge = errors.New("edge is not valid in the current procedure context")
	// ErrInvalidContext signals use of a Ctx, Graph or Vertices iterator after
	// the invocation ended.
	ErrInvalidContext = errors.New("procedure context is no longer valid")

	// ErrOutOfRange is returned for label indexes and vertex ids that do not exist.
	ErrOutOfRange = errors.New("out of range")
	// ErrKeyNotFound is returned by Properties.Lookup for a missing property.
	ErrKeyNotFound = errors.New("property not found")
	// ErrPathMismatch is returned when an edge does not continue a path.
	ErrPathMismatch = errors.New("edge does not touch the last vertex of the path")

	// Done is returned by iterators when no elements remain. It is not a failure.
	Done = errors.New("no more items in iterator")
)

// IsStale reports whether err is one of the stale-handle errors.
func IsStale(err error) bool {
	return errors.Is(err, ErrInvalidVertex) ||
		errors.Is(err, ErrInvalidEdge) ||
		errors.Is(err, ErrInvalidContext)
}
