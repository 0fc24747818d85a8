// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package signature

import "errors"

var (
	// ErrType is returned at registration time for a function or signature
	// whose shape or types cannot be bound.
	ErrType = errors.New("invalid procedure type")
	// ErrUnsupported is returned at registration time for lazy producers.
	ErrUnsupported = errors.New("unsupported procedure kind")
	// ErrSchema is returned for malformed argument or result descriptors.
	ErrSchema = errors.New("invalid procedure schema")
	// ErrState is returned when a transition is requested out of order.
	ErrState = errors.New("invalid binding state")

	// ErrArgument is returned by an Invoker when the engine passes arguments
	// that do not fit the schema.
	ErrArgument = errors.New("invalid procedure argument")
	// ErrResult is returned by an Invoker when a record does not fit the
	// declared result fields.
	ErrResult = errors.New("invalid procedure result")
)
