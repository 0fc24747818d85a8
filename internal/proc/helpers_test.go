package proc_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/memstore"
	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
)

// newGraph builds 1 -KNOWS-> 2 -LIKES-> 3, with labels and properties on
// vertex 1 and edge 1.
func newGraph(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.AddVertex(1, []string{"Person", "Admin"},
		memstore.Property{Name: "name", Value: cty.StringVal("ada")},
		memstore.Property{Name: "age", Value: cty.NumberIntVal(36)},
	))
	require.NoError(t, s.AddVertex(2, []string{"Person"}))
	require.NoError(t, s.AddVertex(3, nil))
	_, err := s.AddEdge(1, 2, "KNOWS", memstore.Property{Name: "since", Value: cty.NumberIntVal(2020)})
	require.NoError(t, err)
	_, err = s.AddEdge(2, 3, "LIKES")
	require.NoError(t, err)
	return s
}

// open begins a transaction and returns the procedure context for it. The
// transaction is closed when the test ends.
func open(t *testing.T, s *memstore.Store) (*proc.Ctx, *memstore.Txn) {
	t.Helper()
	txn := s.Begin()
	t.Cleanup(txn.Close)
	return proc.NewCtx(txn, nil, t.Name()), txn
}

func mustVertex(t *testing.T, ctx *proc.Ctx, id int64) *proc.Vertex {
	t.Helper()
	g, err := ctx.Graph()
	require.NoError(t, err)
	v, err := g.VertexByID(id)
	require.NoError(t, err)
	return v
}

func firstOutEdge(t *testing.T, v *proc.Vertex) *proc.Edge {
	t.Helper()
	edges, err := v.OutEdges()
	require.NoError(t, err)
	e, err := edges.Next()
	require.NoError(t, err)
	return e
}
