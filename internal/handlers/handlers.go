// Package handlers maps the handler names used in manifests to the Go
// functions that implement them.
package handlers

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Module is the interface that all built-in procedure modules implement.
type Module interface {
	Register(h *Handlers)
}

// Manifest is an HCL manifest shipped inside a module.
type Manifest struct {
	Filename string
	Source   []byte
}

// Handlers holds all the registered handlers and embedded manifests.
type Handlers struct {
	mu        sync.RWMutex
	all       map[string]any
	manifests []Manifest
}

// New creates and initializes a new Handlers instance.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]any),
	}
}

// RegisterHandler registers the Go function behind a manifest handler name.
// fn is checked when the procedure is bound, not here.
func (h *Handlers) RegisterHandler(name string, fn any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.all[name]; exists {
		panic(fmt.Sprintf("procedure handler with name '%s' already registered", name))
	}
	slog.Debug("Registering procedure handler.", "name", name)
	h.all[name] = fn
}

// RegisterManifest adds a manifest that ships with a module.
func (h *Handlers) RegisterManifest(filename string, src []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.manifests = append(h.manifests, Manifest{Filename: filename, Source: src})
}

// Lookup returns the function registered under name.
func (h *Handlers) Lookup(name string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.all[name]
	return fn, ok
}

// Names returns all handler names in sorted order.
func (h *Handlers) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Sorted(maps.Keys(h.all))
}

// Manifests returns the embedded manifests in registration order.
func (h *Handlers) Manifests() []Manifest {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.manifests)
}
