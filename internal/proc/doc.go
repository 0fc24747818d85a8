// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package proc is the surface procedure authors program against: the
// procedure context, the graph, vertices, edges, their labels and properties,
// paths and result records.
//
// # Proxies, not copies
//
// Vertex, Edge, Labels, Properties and the iterators are thin views over
// handles owned by the engine. Each one carries the invocation's lease and
// checks it before every operation, not just at construction, because the
// engine may expire the lease at any point between two calls. Once the lease
// expires every operation fails with ErrInvalidVertex, ErrInvalidEdge or
// ErrInvalidContext, and keeps failing; staleness is permanent and must never
// be retried.
//
// Nothing returned by this package may be kept after the procedure returns.
// Values that need to outlive the call must be copied into a Record.
//
// # Iteration
//
// Iterators advance one element at a time and report the end of a sequence
// with Done. An expired lease is reported as an error instead of silently
// ending the sequence, so procedure authors never mistake a cancelled call for
// an empty result.
package proc
