// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import (
	"fmt"
	"iter"
)

// Label is a label of a Vertex. Labels compare by name.
type Label struct {
	Name string
}

// Labels is the ordered collection of labels on a Vertex. Every call goes back
// to the engine, so the answer reflects the vertex at the moment of the call.
type Labels struct {
	v *Vertex
}

// Len returns the number of labels.
func (l *Labels) Len() (int, error) {
	if err := l.v.check(); err != nil {
		return 0, err
	}
	return l.v.h.LabelsCount(), nil
}

// At returns the label at index i.
func (l *Labels) At(i int) (Label, error) {
	if err := l.v.check(); err != nil {
		return Label{}, err
	}
	n := l.v.h.LabelsCount()
	if i < 0 || i >= n {
		return Label{}, fmt.Errorf("%w: label index %d, vertex has %d labels", ErrOutOfRange, i, n)
	}
	return Label{Name: l.v.h.LabelAt(i)}, nil
}

// All iterates over the labels in storage order.
func (l *Labels) All() iter.Seq2[Label, error] {
	return func(yield func(Label, error) bool) {
		for i := 0; ; i++ {
			if err := l.v.check(); err != nil {
				yield(Label{}, err)
				return
			}
			if i >= l.v.h.LabelsCount() {
				return
			}
			if !yield(Label{Name: l.v.h.LabelAt(i)}, nil) {
				return
			}
		}
	}
}

// Contains reports whether the vertex carries the given label.
func (l *Labels) Contains(label Label) (bool, error) {
	return l.ContainsName(label.Name)
}

// ContainsName reports whether the vertex carries a label with the given name.
func (l *Labels) ContainsName(name string) (bool, error) {
	if err := l.v.check(); err != nil {
		return false, err
	}
	for i := 0; i < l.v.h.LabelsCount(); i++ {
		if l.v.h.LabelAt(i) == name {
			return true, nil
		}
	}
	return false, nil
}
