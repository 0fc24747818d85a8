package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/cli"
)

const graphYAML = `
vertices:
  - {id: 1, labels: [Person], properties: {name: ada}}
  - {id: 2, labels: [Person], properties: {name: bob}}
edges:
  - {from: 1, to: 2, type: KNOWS}
`

// execute runs the CLI in a fresh working directory.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("graph.yaml", []byte(graphYAML), 0o644))

	var out, errOut bytes.Buffer
	err := cli.Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	return exitErr.Code
}

func TestCall_Echo(t *testing.T) {
	out, _, err := execute(t, "call", "echo.hello", "hi")
	require.NoError(t, err)

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &row))
	assert.Equal(t, "Hello world!", row["result"])
	assert.Equal(t, []any{"hi", nil}, row["args"])
}

func TestCall_GraphProcedure(t *testing.T) {
	out, _, err := execute(t, "--graph", "graph.yaml", "call", "graphinfo.walk", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	var row struct {
		Path struct {
			Vertices []struct {
				ID         int64          `json:"id"`
				Properties map[string]any `json:"properties"`
			} `json:"vertices"`
			Edges []struct {
				Type string `json:"type"`
			} `json:"edges"`
		} `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &row))
	require.Len(t, row.Path.Vertices, 2)
	assert.Equal(t, "bob", row.Path.Vertices[1].Properties["name"])
	require.Len(t, row.Path.Edges, 1)
	assert.Equal(t, "KNOWS", row.Path.Edges[0].Type)
}

func TestCall_Errors(t *testing.T) {
	_, _, err := execute(t, "call", "echo.missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "echo.missing")

	_, _, err = execute(t, "call")
	assert.Equal(t, 2, exitCode(t, err))

	_, _, err = execute(t, "call", "echo.hello", "[1,")
	assert.Equal(t, 2, exitCode(t, err))

	_, _, err = execute(t, "--graph", "graph.yaml", "call", "graphinfo.vertex", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestList(t *testing.T) {
	out, _, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "degree.stats(direction = \"out\" :: string)")
	assert.Contains(t, out, "echo.hello(required_arg :: any, optional_arg = null :: any)")
	assert.Contains(t, out, "graphinfo.walk(id :: number, hops = 1 :: number) :: (path :: path)")
}

func TestDescribe(t *testing.T) {
	out, _, err := execute(t, "describe", "graphinfo.vertex")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "graphinfo.vertex", doc["name"])
	args := doc["args"].(map[string]any)
	assert.Equal(t, []any{"id"}, args["required"])

	_, _, err = execute(t, "describe")
	assert.Equal(t, 2, exitCode(t, err))
}

func TestValidate_ExtraManifests(t *testing.T) {
	out, _, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 3 modules, 4 procedures")

	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll("modules/extra", 0o755))
	require.NoError(t, os.WriteFile("modules/extra/manifest.hcl", []byte(`
module "extra" {
  procedure "ghost" {
    handler = "NoSuchHandler"
  }
}
`), 0o644))
	var buf bytes.Buffer
	err = cli.Execute(context.Background(), []string{"validate"}, &buf, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler 'NoSuchHandler' is not registered")
}

func TestUsageErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--this-is-not-a-valid-flag", "list"}},
		{"bad log level", []string{"--log-level", "verbose", "list"}},
		{"two graphs", []string{"--graph", "a.yaml", "--sqlite", "a.db", "list"}},
		{"extra args", []string{"list", "extra"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			assert.Equal(t, 2, exitCode(t, err))
		})
	}
}

func TestMetricsFile(t *testing.T) {
	_, _, err := execute(t, "--metrics-file", "metrics.prom", "call", "echo.hello", "1")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(".", "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `procbridge_invocations_total{outcome="ok",procedure="echo.hello"} 1`)
	assert.Contains(t, string(data), "procbridge_registered_procedures 4")
}
