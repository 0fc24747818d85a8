package degree_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/memstore"
	"github.com/vk/procbridge/internal/testutil"
	"github.com/vk/procbridge/modules/degree"
	"github.com/zclconf/go-cty/cty"
)

func float(t *testing.T, v cty.Value) float64 {
	t.Helper()
	f, _ := v.AsBigFloat().Float64()
	return f
}

func TestStats(t *testing.T) {
	p := testutil.Procedure(t, testutil.Bind(t, &degree.Module{}), "degree.stats")
	pctx, _ := testutil.NewInvocation(t, testutil.NewGraph(t))

	// Out-degrees of the fixture are 2, 1 and 0; in-degrees 0, 1 and 2.
	testCases := []struct {
		name string
		args []cty.Value
		mean float64
		std  float64
		max  float64
	}{
		{"default is out", nil, 1, 1, 2},
		{"in", []cty.Value{cty.StringVal("in")}, 1, 1, 2},
		{"both", []cty.Value{cty.StringVal("both")}, 2, 0, 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := p.Invoke(pctx, tc.args)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			row := rows[0]
			assert.True(t, row["count"].RawEquals(cty.NumberIntVal(3)))
			assert.InDelta(t, tc.mean, float(t, row["mean"]), 1e-9)
			assert.InDelta(t, tc.std, float(t, row["stddev"]), 1e-9)
			assert.InDelta(t, tc.max, float(t, row["max"]), 1e-9)
		})
	}
}

func TestStats_BadDirection(t *testing.T) {
	p := testutil.Procedure(t, testutil.Bind(t, &degree.Module{}), "degree.stats")
	pctx, _ := testutil.NewInvocation(t, testutil.NewGraph(t))

	_, err := p.Invoke(pctx, []cty.Value{cty.StringVal("sideways")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direction must be")
}

func TestStats_SmallGraphs(t *testing.T) {
	p := testutil.Procedure(t, testutil.Bind(t, &degree.Module{}), "degree.stats")

	empty := memstore.New()
	pctx, _ := testutil.NewInvocation(t, empty)
	rows, err := p.Invoke(pctx, nil)
	require.NoError(t, err)
	assert.True(t, rows[0]["count"].RawEquals(cty.NumberIntVal(0)))
	assert.Zero(t, float(t, rows[0]["stddev"]))

	single := memstore.New()
	require.NoError(t, single.AddVertex(1, nil))
	pctx, _ = testutil.NewInvocation(t, single)
	rows, err = p.Invoke(pctx, nil)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(float(t, rows[0]["stddev"])))
	assert.Zero(t, float(t, rows[0]["stddev"]))
}
