package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/app"
	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/registry"
)

// Bind registers mods, binds their embedded manifests and returns the
// resulting registry. Any loading or binding error fails the test.
func Bind(t *testing.T, mods ...handlers.Module) *registry.Registry {
	t.Helper()
	h := handlers.New()
	for _, m := range mods {
		m.Register(h)
	}
	reg, err := app.BuildRegistry(context.Background(), h, "")
	require.NoError(t, err)
	return reg
}

// Procedure looks a bound procedure up by its qualified name.
func Procedure(t *testing.T, reg *registry.Registry, name string) *registry.Procedure {
	t.Helper()
	p, err := reg.Lookup(name)
	require.NoError(t, err)
	return p
}
