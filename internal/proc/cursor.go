// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import "github.com/vk/procbridge/internal/lease"

// stepper drives an engine get/next cursor one element at a time and checks
// the lease before every step, including steps taken after the end.
type stepper[T any] struct {
	lease   lease.Lease
	invalid error
	get     func() (T, bool)
	next    func() (T, bool)
	started bool
	done    bool
}

func (s *stepper[T]) step() (T, error) {
	var zero T
	if !s.lease.IsValid() {
		return zero, s.invalid
	}
	if s.done {
		return zero, Done
	}

	var (
		item T
		ok   bool
	)
	if !s.started {
		s.started = true
		item, ok = s.get()
	} else {
		item, ok = s.next()
	}
	if !ok {
		s.done = true
		return zero, Done
	}
	return item, nil
}
