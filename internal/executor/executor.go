// Package executor defines how a procedure call is driven against the graph
// and how its rows leave the invocation.
package executor

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Executor runs one procedure call from start to teardown.
type Executor interface {
	Call(ctx context.Context, name string, args []cty.Value) (*Result, error)
}

// Result is the outcome of a call. Rows hold plain Go values only: graph
// entities are copied out while the invocation is still valid, so a Result
// stays usable after the graph moves on.
type Result struct {
	Procedure    string
	InvocationID string
	Columns      []string
	Rows         []map[string]any
}
