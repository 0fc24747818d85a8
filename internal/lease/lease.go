// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package lease

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Lease is the validity context shared by every proxy of one invocation.
//
// IsValid must be safe to call any number of times, including after the lease
// has expired, and must have no side effects.
type Lease interface {
	IsValid() bool
}

// Epoch is the engine-side Lease implementation. It is created right before a
// procedure is called and expired right after it returns.
type Epoch struct {
	id      uuid.UUID
	expired atomic.Bool
}

// New returns a live Epoch with a fresh identifier.
func New() *Epoch {
	return &Epoch{id: uuid.New()}
}

// ID identifies the invocation this epoch belongs to. It is used for log
// correlation only.
func (e *Epoch) ID() uuid.UUID {
	return e.id
}

// IsValid reports whether the epoch has not been expired yet.
func (e *Epoch) IsValid() bool {
	return !e.expired.Load()
}

// Expire permanently invalidates the epoch. Calling it more than once is a no-op.
func (e *Epoch) Expire() {
	e.expired.Store(true)
}
