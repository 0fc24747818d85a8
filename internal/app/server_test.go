package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/app"
	"github.com/vk/procbridge/internal/testutil"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	res := testutil.RunApp(t, testutil.HarnessOptions{GraphYAML: graphYAML})
	require.NoError(t, res.Err)
	srv := httptest.NewServer(res.App.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestServer_Health(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))
}

func TestServer_Call(t *testing.T) {
	srv := newServer(t)

	status, out := post(t, srv, "/call/graphinfo.walk", `[1, 2]`)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, []any{"path"}, out["columns"])
	rows := out["rows"].([]any)
	require.Len(t, rows, 1)
	path := rows[0].(map[string]any)["path"].(map[string]any)
	assert.Len(t, path["vertices"], 3)

	status, out = post(t, srv, "/call/echo.hello", `["x", null]`)
	require.Equal(t, http.StatusOK, status, out)

	status, out = post(t, srv, "/call/degree.stats", ``)
	require.Equal(t, http.StatusOK, status, out)
	assert.EqualValues(t, 3, out["rows"].([]any)[0].(map[string]any)["count"])
}

func TestServer_CallErrors(t *testing.T) {
	srv := newServer(t)

	testCases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown procedure", "/call/nope.nope", `[]`, http.StatusNotFound},
		{"not an array", "/call/echo.hello", `{"a": 1}`, http.StatusBadRequest},
		{"missing argument", "/call/echo.hello", `[]`, http.StatusBadRequest},
		{"no such vertex", "/call/graphinfo.vertex", `[99]`, http.StatusUnprocessableEntity},
		{"body too large", "/call/echo.hello", `["` + strings.Repeat("x", app.MaxCallBodyBytes) + `"]`, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := post(t, srv, tc.path, tc.body)
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestServer_ProceduresAndMetrics(t *testing.T) {
	srv := newServer(t)
	post(t, srv, "/call/echo.hello", `[1]`)

	resp, err := http.Get(srv.URL + "/procedures")
	require.NoError(t, err)
	var procs []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&procs))
	resp.Body.Close()
	require.Len(t, procs, 4)
	assert.Equal(t, "degree.stats", procs[0]["name"])

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `procbridge_invocations_total{outcome="ok",procedure="echo.hello"} 1`)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	res := testutil.RunApp(t, testutil.HarnessOptions{})
	require.NoError(t, res.Err)

	// Find a free port, then let Serve bind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- res.App.Serve(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Contains(t, res.Logs.String(), "Server shut down gracefully.")
}
