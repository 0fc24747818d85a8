package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/memstore"
	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// LoggedContext returns a context carrying a debug-level text logger that
// writes into the returned buffer.
func LoggedContext(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), buf
}

// NewGraph builds the shared fixture graph:
//
//	(1:Person:Admin {name: "ada", age: 36}) -[KNOWS {since: 2020}]-> (2:Person) -[LIKES]-> (3)
//	(1) -[LIKES]-> (3)
func NewGraph(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.AddVertex(1, []string{"Person", "Admin"},
		memstore.Property{Name: "name", Value: cty.StringVal("ada")},
		memstore.Property{Name: "age", Value: cty.NumberIntVal(36)},
	))
	require.NoError(t, s.AddVertex(2, []string{"Person"},
		memstore.Property{Name: "name", Value: cty.StringVal("bob")},
	))
	require.NoError(t, s.AddVertex(3, nil))
	for _, e := range []struct {
		from, to int64
		typ      string
		props    []memstore.Property
	}{
		{1, 2, "KNOWS", []memstore.Property{{Name: "since", Value: cty.NumberIntVal(2020)}}},
		{2, 3, "LIKES", nil},
		{1, 3, "LIKES", nil},
	} {
		_, err := s.AddEdge(e.from, e.to, e.typ, e.props...)
		require.NoError(t, err)
	}
	return s
}

// NewInvocation opens a transaction on s and wraps it into a procedure
// context. The transaction is closed when the test ends; close it earlier to
// simulate the end of the invocation.
func NewInvocation(t *testing.T, s *memstore.Store) (*proc.Ctx, *memstore.Txn) {
	t.Helper()
	txn := s.Begin()
	t.Cleanup(txn.Close)
	return proc.NewCtx(txn, nil, t.Name()), txn
}
