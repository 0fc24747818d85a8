// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package proc

import (
	"fmt"
	"iter"

	"github.com/vk/procbridge/internal/engine"
	"github.com/vk/procbridge/internal/lease"
	"github.com/zclconf/go-cty/cty"
)

// Property is a named property value of a Vertex or an Edge.
type Property struct {
	Name  string
	Value cty.Value
}

// Properties is the collection of properties on a Vertex or an Edge. Every
// operation fails with the owner's stale-handle error once the owner is no
// longer valid.
type Properties struct {
	owner   engine.PropertyHolder
	lease   lease.Lease
	invalid error
}

func (p *Properties) check() error {
	if !p.lease.IsValid() {
		return p.invalid
	}
	return nil
}

// Get returns the named property, or def when the property does not exist.
func (p *Properties) Get(name string, def cty.Value) (cty.Value, error) {
	if err := p.check(); err != nil {
		return cty.NilVal, err
	}
	if v, ok := p.owner.Property(name); ok {
		return v, nil
	}
	return def, nil
}

// Lookup returns the named property, failing with ErrKeyNotFound when it does
// not exist.
func (p *Properties) Lookup(name string) (cty.Value, error) {
	if err := p.check(); err != nil {
		return cty.NilVal, err
	}
	v, ok := p.owner.Property(name)
	if !ok {
		return cty.NilVal, fmt.Errorf("%w: %q", ErrKeyNotFound, name)
	}
	return v, nil
}

// Contains reports whether the named property exists.
func (p *Properties) Contains(name string) (bool, error) {
	if err := p.check(); err != nil {
		return false, err
	}
	_, ok := p.owner.Property(name)
	return ok, nil
}

// Len returns the number of properties.
func (p *Properties) Len() (int, error) {
	if err := p.check(); err != nil {
		return 0, err
	}
	return p.owner.PropertyCount(), nil
}

// Items lazily iterates over (name, value) pairs in storage order.
func (p *Properties) Items() iter.Seq2[Property, error] {
	return func(yield func(Property, error) bool) {
		if err := p.check(); err != nil {
			yield(Property{}, err)
			return
		}
		cur := p.owner.IterProperties()
		s := stepper[Property]{
			lease:   p.lease,
			invalid: p.invalid,
			get: func() (Property, bool) {
				name, v, ok := cur.Get()
				return Property{Name: name, Value: v}, ok
			},
			next: func() (Property, bool) {
				name, v, ok := cur.Next()
				return Property{Name: name, Value: v}, ok
			},
		}
		for prop, err := range drain(s.step) {
			if !yield(prop, err) {
				return
			}
		}
	}
}

// Keys lazily iterates over property names.
func (p *Properties) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for prop, err := range p.Items() {
			if !yield(prop.Name, err) {
				return
			}
		}
	}
}

// Values lazily iterates over property values.
func (p *Properties) Values() iter.Seq2[cty.Value, error] {
	return func(yield func(cty.Value, error) bool) {
		for prop, err := range p.Items() {
			if !yield(prop.Value, err) {
				return
			}
		}
	}
}
