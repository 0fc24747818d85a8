// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package lease models the lifetime of engine-owned memory for one procedure
// invocation.
//
// # Why a lease?
//
// The engine owns the graph, the transaction snapshot and the arena every
// handle points into. A procedure only borrows them for the duration of one
// call. Instead of relying on destructor ordering or garbage-collection timing,
// every proxy handed to procedure code holds a reference to a Lease and asks it
// whether it is still live before touching its handle.
//
// A Lease is a pure query. The engine, not this package's consumers, decides
// when it expires. Once a Lease reports false it never reports true again;
// a new invocation gets a new Lease.
package lease
