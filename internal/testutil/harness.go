package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/app"
	"github.com/vk/procbridge/internal/config"
	"github.com/vk/procbridge/internal/handlers"
)

// HarnessOptions configures RunApp.
type HarnessOptions struct {
	// Files are written below a temporary directory that serves as the
	// modules path, e.g. "extra/manifest.hcl".
	Files map[string]string
	// GraphYAML, when set, is written to a file and loaded as the graph.
	GraphYAML string
	// Modules replaces the core modules when not empty.
	Modules []handlers.Module
	// Configure may adjust the configuration before the app is built.
	Configure func(*config.Config)
}

// HarnessResult holds the outcome of building an App in a test.
type HarnessResult struct {
	App  *app.App
	Err  error
	Out  *SafeBuffer
	Logs *SafeBuffer
}

// RunApp builds an App from opts with debug logging. Startup errors are
// returned in the result rather than failing the test.
func RunApp(t *testing.T, opts HarnessOptions) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	modulesDir := filepath.Join(dir, "modules")
	require.NoError(t, os.Mkdir(modulesDir, 0o755))
	for name, content := range opts.Files {
		path := filepath.Join(modulesDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := &config.Config{
		Log:     config.LogConfig{Level: "debug", Format: "text"},
		Modules: config.ModulesConfig{Path: modulesDir},
		Server:  config.ServerConfig{Listen: config.DefaultListen},
	}
	if opts.GraphYAML != "" {
		cfg.Graph.YAML = filepath.Join(dir, "graph.yaml")
		require.NoError(t, os.WriteFile(cfg.Graph.YAML, []byte(opts.GraphYAML), 0o644))
	}
	if opts.Configure != nil {
		opts.Configure(cfg)
	}

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	a, err := app.NewApp(context.Background(), out, logs, cfg, opts.Modules...)
	if os.Getenv("PROCBRIDGE_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}
	return &HarnessResult{App: a, Err: err, Out: out, Logs: logs}
}
