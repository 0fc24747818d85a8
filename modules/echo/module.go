// Package echo ships the smallest possible procedure. It takes no procedure
// context and never touches the graph.
package echo

import (
	_ "embed"

	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
)

//go:embed manifest.hcl
var manifestSrc []byte

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Hello greets and echoes both arguments as a tuple.
func Hello(required, optional cty.Value) proc.Record {
	return proc.Record{
		"result": "Hello world!",
		"args":   cty.TupleVal([]cty.Value{required, optional}),
	}
}

// Register registers the handler and manifest with the engine.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterHandler("EchoHello", Hello)
	h.RegisterManifest("echo/manifest.hcl", manifestSrc)
}
