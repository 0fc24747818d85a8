package testutil

import (
	"maps"
	"slices"

	"github.com/vk/procbridge/internal/handlers"
)

// FuncModule registers arbitrary handlers, plus optional embedded manifests
// keyed by file name. Tests use it to pair inline Go functions with inline
// HCL.
type FuncModule struct {
	Handlers  map[string]any
	Manifests map[string]string
}

// Register registers every handler and manifest in sorted name order.
func (m *FuncModule) Register(h *handlers.Handlers) {
	for _, name := range slices.Sorted(maps.Keys(m.Handlers)) {
		h.RegisterHandler(name, m.Handlers[name])
	}
	for _, name := range slices.Sorted(maps.Keys(m.Manifests)) {
		h.RegisterManifest(name, []byte(m.Manifests[name]))
	}
}
