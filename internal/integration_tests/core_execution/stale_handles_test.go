package integration_tests

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/localexecutor"
	"github.com/vk/procbridge/internal/metrics"
	"github.com/vk/procbridge/internal/proc"
	tu "github.com/vk/procbridge/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

const keeperManifest = `
	module "keeper" {
	  procedure "keep" {
	    handler = "Keep"
	    arg "id" {
	      type = number
	    }
	    result "id" {
	      type = number
	    }
	  }
	  procedure "reuse" {
	    handler = "Reuse"
	    result "labels" {
	      type = number
	    }
	  }
	}
`

// keeperModule stores the vertex looked up by one invocation so that a later
// invocation can try to use it.
func keeperModule() handlers.Module {
	var kept *proc.Vertex
	return &tu.FuncModule{
		Handlers: map[string]any{
			"Keep": func(ctx *proc.Ctx, id int64) (proc.Record, error) {
				g, err := ctx.Graph()
				if err != nil {
					return nil, err
				}
				v, err := g.VertexByID(id)
				if err != nil {
					return nil, err
				}
				kept = v
				return proc.Record{"id": id}, nil
			},
			"Reuse": func() (proc.Record, error) {
				labels, err := kept.Labels()
				if err != nil {
					return nil, err
				}
				n, err := labels.Len()
				if err != nil {
					return nil, err
				}
				return proc.Record{"labels": n}, nil
			},
		},
		Manifests: map[string]string{"keeper.hcl": keeperManifest},
	}
}

// TestCoreExecution_ProxyFromEarlierInvocationIsStale checks that a vertex
// kept past the end of its invocation reports invalidity instead of reading
// the graph, and that the executor counts the call as stale.
func TestCoreExecution_ProxyFromEarlierInvocationIsStale(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	result := tu.RunApp(t, tu.HarnessOptions{Modules: []handlers.Module{keeperModule()}})
	require.NoError(t, result.Err)
	store := tu.NewGraph(t)
	m := metrics.New()
	exec := localexecutor.New(store, result.App.Registry(), m)
	ctx := context.Background()

	// --- Act ---
	first, err := exec.Call(ctx, "keeper.keep", []cty.Value{cty.NumberIntVal(1)})
	require.NoError(t, err)
	_, err = exec.Call(ctx, "keeper.reuse", nil)

	// --- Assert ---
	require.Len(t, first.Rows, 1)
	assert.EqualValues(t, 1, first.Rows[0]["id"])

	require.ErrorIs(t, err, proc.ErrInvalidVertex)
	assert.True(t, proc.IsStale(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvocationsTotal.WithLabelValues("keeper.keep", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvocationsTotal.WithLabelValues("keeper.reuse", metrics.OutcomeStale)))
}

// TestCoreExecution_ProxyIsValidWithinItsInvocation checks that the same
// reuse path succeeds while the lease that produced the proxy is still open.
func TestCoreExecution_ProxyIsValidWithinItsInvocation(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	result := tu.RunApp(t, tu.HarnessOptions{Modules: []handlers.Module{keeperModule()}})
	require.NoError(t, result.Err)
	reg := result.App.Registry()
	pctx, txn := tu.NewInvocation(t, tu.NewGraph(t))

	// --- Act ---
	_, err := tu.Procedure(t, reg, "keeper.keep").Invoke(pctx, []cty.Value{cty.NumberIntVal(1)})
	require.NoError(t, err)
	rows, err := tu.Procedure(t, reg, "keeper.reuse").Invoke(pctx, nil)
	require.NoError(t, err)
	txn.Close()
	_, staleErr := tu.Procedure(t, reg, "keeper.reuse").Invoke(pctx, nil)

	// --- Assert ---
	require.Len(t, rows, 1)
	assert.True(t, rows[0]["labels"].RawEquals(cty.NumberIntVal(2)))
	require.ErrorIs(t, staleErr, proc.ErrInvalidVertex)
}
