package localexecutor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/localexecutor"
	"github.com/vk/procbridge/internal/metrics"
	"github.com/vk/procbridge/internal/proc"
	"github.com/vk/procbridge/internal/registry"
	"github.com/vk/procbridge/internal/signature"
	tu "github.com/vk/procbridge/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

type fixture struct {
	exec    *localexecutor.Executor
	metrics *metrics.Metrics
	kept    *proc.Vertex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{metrics: metrics.New()}
	reg := registry.New()
	m, err := reg.Module("g")
	require.NoError(t, err)

	vertex := func(ctx *proc.Ctx, id int64) (proc.Record, error) {
		g, err := ctx.Graph()
		if err != nil {
			return nil, err
		}
		v, err := g.VertexByID(id)
		if err != nil {
			return nil, err
		}
		f.kept = v
		return proc.Record{"vertex": v}, nil
	}
	_, err = signature.ReadProc(context.Background(), m, "vertex", vertex, signature.Signature{
		Args:    []signature.ArgSpec{signature.Required("id", cty.Number)},
		Results: signature.Returns(signature.Field("vertex", proc.VertexCapsule)),
	})
	require.NoError(t, err)

	reuse := func() (proc.Record, error) {
		id, err := f.kept.ID()
		return proc.Record{"id": id}, err
	}
	_, err = signature.ReadProc(context.Background(), m, "reuse", reuse, signature.Signature{})
	require.NoError(t, err)

	crash := func(ctx *proc.Ctx) proc.Record {
		g, err := ctx.Graph()
		if err != nil {
			return nil
		}
		f.kept, _ = g.VertexByID(1)
		panic("crash after lookup")
	}
	_, err = signature.ReadProc(context.Background(), m, "crash", crash, signature.Signature{})
	require.NoError(t, err)

	loose := func() []proc.Record {
		return []proc.Record{{"b": 1}, {"a": "x", "b": 2}}
	}
	_, err = signature.ReadProc(context.Background(), m, "loose", loose, signature.Signature{})
	require.NoError(t, err)

	f.exec = localexecutor.New(tu.NewGraph(t), reg, f.metrics)
	return f
}

func TestExecutor_Call(t *testing.T) {
	f := newFixture(t)
	ctx, logs := tu.LoggedContext(t)

	res, err := f.exec.Call(ctx, "g.vertex", []cty.Value{cty.NumberIntVal(2)})
	require.NoError(t, err)

	assert.Equal(t, "g.vertex", res.Procedure)
	assert.NotEmpty(t, res.InvocationID)
	assert.Equal(t, []string{"vertex"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, map[string]any{
		"id":         int64(2),
		"labels":     []string{"Person"},
		"properties": map[string]any{"name": "bob"},
	}, res.Rows[0]["vertex"])

	assert.False(t, f.kept.IsValid(), "proxies must expire when the call returns")
	assert.Contains(t, logs.String(), "Procedure finished.")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvocationsTotal.WithLabelValues("g.vertex", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RowsTotal.WithLabelValues("g.vertex")))
}

func TestExecutor_CallErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.exec.Call(ctx, "g.missing", nil)
	require.ErrorIs(t, err, registry.ErrNotFound)

	_, err = f.exec.Call(ctx, "g.vertex", []cty.Value{cty.NumberIntVal(99)})
	require.ErrorIs(t, err, proc.ErrOutOfRange)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvocationsTotal.WithLabelValues("g.vertex", metrics.OutcomeError)))

	_, err = f.exec.Call(ctx, "g.vertex", nil)
	require.ErrorIs(t, err, signature.ErrArgument)
}

func TestExecutor_StaleProxyFromEarlierCall(t *testing.T) {
	f := newFixture(t)
	ctx, logs := tu.LoggedContext(t)

	_, err := f.exec.Call(ctx, "g.vertex", []cty.Value{cty.NumberIntVal(1)})
	require.NoError(t, err)

	_, err = f.exec.Call(ctx, "g.reuse", nil)
	require.ErrorIs(t, err, proc.ErrInvalidVertex)
	assert.True(t, proc.IsStale(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvocationsTotal.WithLabelValues("g.reuse", metrics.OutcomeStale)))
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestExecutor_UndeclaredColumnsAreSorted(t *testing.T) {
	f := newFixture(t)

	res, err := f.exec.Call(context.Background(), "g.loose", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, map[string]any{"b": int64(1)}, res.Rows[0])
}

func TestExecutor_NilMetrics(t *testing.T) {
	reg := registry.New()
	m, err := reg.Module("x")
	require.NoError(t, err)
	fail := func() error { return errors.New("boom") }
	_, err = signature.ReadProc(context.Background(), m, "fail", fail, signature.Signature{})
	require.NoError(t, err)

	exec := localexecutor.New(tu.NewGraph(t), reg, nil)
	_, err = exec.Call(context.Background(), "x.fail", nil)
	require.EqualError(t, err, "x.fail: boom")
}

func TestExecutor_ConcurrentCalls(t *testing.T) {
	f := newFixture(t)

	tu.Parallel(t, 16, func(i int) error {
		res, err := f.exec.Call(context.Background(), "g.loose", nil)
		if err != nil {
			return err
		}
		if len(res.Rows) != 2 {
			return errors.New("unexpected row count")
		}
		return nil
	})
	assert.Equal(t, 16.0, testutil.ToFloat64(f.metrics.InvocationsTotal.WithLabelValues("g.loose", metrics.OutcomeOK)))
}

func TestExecutor_PanickingProcedureExpiresItsProxies(t *testing.T) {
	f := newFixture(t)

	res, err := f.exec.Call(context.Background(), "g.crash", nil)
	require.ErrorIs(t, err, localexecutor.ErrPanic)
	assert.ErrorContains(t, err, "crash after lookup")
	assert.Nil(t, res)

	require.NotNil(t, f.kept)
	assert.False(t, f.kept.IsValid())
	_, err = f.kept.ID()
	require.ErrorIs(t, err, proc.ErrInvalidVertex)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvocationsTotal.WithLabelValues("g.crash", metrics.OutcomeError)))

	_, err = f.exec.Call(context.Background(), "g.vertex", []cty.Value{cty.NumberIntVal(2)})
	require.NoError(t, err, "the executor stays usable after a panic")
}

func TestExecutor_CancelledContextSkipsInvocation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.exec.Call(ctx, "g.vertex", []cty.Value{cty.NumberIntVal(1)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, f.kept, "the procedure must not run")
}
