// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package memstore is an in-memory graph engine implementing the shapes in
// package engine. It backs the CLI and the test suite.
//
// # Characteristics
//
//   - Vertices are kept in a B-tree ordered by id; that is the storage order
//     every vertex iteration follows.
//   - Labels and properties keep insertion order.
//   - Begin takes a copy-on-write snapshot of the vertex index. Vertices and
//     edges are never changed in place: writers publish modified copies, so
//     nothing written after Begin (new vertices, new edges, labels or
//     properties) is visible to an open transaction.
//   - Every transaction owns a lease.Epoch; Close expires it, after which all
//     proxies built on that transaction report invalid.
package memstore
