package proc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
)

func TestProperties_GetAndLookup(t *testing.T) {
	ctx, _ := open(t, newGraph(t))
	props, err := mustVertex(t, ctx, 1).Properties()
	require.NoError(t, err)

	name, err := props.Get("name", cty.NullVal(cty.String))
	require.NoError(t, err)
	assert.True(t, name.RawEquals(cty.StringVal("ada")))

	missing, err := props.Get("email", cty.StringVal("none"))
	require.NoError(t, err)
	assert.True(t, missing.RawEquals(cty.StringVal("none")))

	_, err = props.Lookup("email")
	assert.ErrorIs(t, err, proc.ErrKeyNotFound)
	assert.ErrorContains(t, err, `"email"`)

	ok, err := props.Contains("age")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProperties_IterationOrder(t *testing.T) {
	ctx, _ := open(t, newGraph(t))
	props, err := mustVertex(t, ctx, 1).Properties()
	require.NoError(t, err)

	var keys []string
	for k, err := range props.Keys() {
		require.NoError(t, err)
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"name", "age"}, keys)

	var values []cty.Value
	for v, err := range props.Values() {
		require.NoError(t, err)
		values = append(values, v)
	}
	require.Len(t, values, 2)
	assert.True(t, values[1].RawEquals(cty.NumberIntVal(36)))
}

func TestProperties_EdgeStaleError(t *testing.T) {
	ctx, txn := open(t, newGraph(t))
	e := firstOutEdge(t, mustVertex(t, ctx, 1))
	props, err := e.Properties()
	require.NoError(t, err)

	since, err := props.Lookup("since")
	require.NoError(t, err)
	assert.True(t, since.RawEquals(cty.NumberIntVal(2020)))

	txn.Close()
	_, err = props.Lookup("since")
	assert.ErrorIs(t, err, proc.ErrInvalidEdge)

	var errs []error
	for _, err := range props.Items() {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], proc.ErrInvalidEdge)
}

func TestProperties_ItemsFailMidIteration(t *testing.T) {
	ctx, txn := open(t, newGraph(t))
	props, err := mustVertex(t, ctx, 1).Properties()
	require.NoError(t, err)

	var (
		seen []string
		last error
	)
	for p, err := range props.Items() {
		if err != nil {
			last = err
			break
		}
		seen = append(seen, p.Name)
		txn.Close()
	}
	assert.Equal(t, []string{"name"}, seen)
	assert.ErrorIs(t, last, proc.ErrInvalidVertex)
}
