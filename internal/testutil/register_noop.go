package testutil

import "github.com/vk/procbridge/internal/handlers"

const noopManifest = `
module "testing" {
  procedure "noop" {
    handler     = "NoOp"
    description = "Does nothing."
  }
}
`

// NoOpModule registers a single procedure, testing.noop, that takes no
// arguments and returns no rows. It is useful for tests that need a valid
// registry but do not care what is in it.
type NoOpModule struct{}

// Register registers the handler and its manifest.
func (m *NoOpModule) Register(h *handlers.Handlers) {
	h.RegisterHandler("NoOp", func() {})
	h.RegisterManifest("testing/noop.hcl", []byte(noopManifest))
}
