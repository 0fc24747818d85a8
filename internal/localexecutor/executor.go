// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface over the in-memory graph store.
package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/executor"
	"github.com/vk/procbridge/internal/memstore"
	"github.com/vk/procbridge/internal/metrics"
	"github.com/vk/procbridge/internal/proc"
	"github.com/vk/procbridge/internal/registry"
	"github.com/vk/procbridge/internal/signature"
	"github.com/zclconf/go-cty/cty"
)

// ErrPanic is returned when a procedure panics.
var ErrPanic = errors.New("procedure panicked")

// Executor implements the executor.Executor interface for local execution.
// Each call runs in its own transaction; the transaction is closed before Call
// returns, which expires every proxy the procedure handed out.
type Executor struct {
	store   *memstore.Store
	reg     *registry.Registry
	metrics *metrics.Metrics
}

var _ executor.Executor = (*Executor)(nil)

// New creates a new local executor. m may be nil.
func New(store *memstore.Store, reg *registry.Registry, m *metrics.Metrics) *Executor {
	return &Executor{store: store, reg: reg, metrics: m}
}

// Call looks up name, invokes it with args and materializes its rows.
func (e *Executor) Call(ctx context.Context, name string, args []cty.Value) (*executor.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := e.reg.Lookup(name)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, logger := ctxlog.With(ctx, "procedure", name)
	logger.Debug("Invoking procedure.", "invocation", id, "args", len(args))

	start := time.Now()
	res, err := e.invoke(p, args, logger, id)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeOK
	rows := 0
	switch {
	case proc.IsStale(err):
		outcome = metrics.OutcomeStale
	case err != nil:
		outcome = metrics.OutcomeError
	default:
		rows = len(res.Rows)
		res.Procedure = p.Name()
		res.InvocationID = id
	}
	if e.metrics != nil {
		e.metrics.Observe(p.Name(), outcome, rows, elapsed)
	}

	switch outcome {
	case metrics.OutcomeStale:
		logger.Warn("Procedure used a graph handle outside its invocation.", "invocation", id, "error", err)
	case metrics.OutcomeError:
		logger.Debug("Procedure failed.", "invocation", id, "error", err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	logger.Debug("Procedure finished.", "invocation", id, "rows", rows, "elapsed", elapsed)
	return res, nil
}

// invoke runs p in its own transaction. The transaction is closed on every
// way out, and a panicking procedure is reported as ErrPanic.
func (e *Executor) invoke(p *registry.Procedure, args []cty.Value, logger *slog.Logger, id string) (res *executor.Result, err error) {
	txn := e.store.Begin()
	defer txn.Close()
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return e.run(proc.NewCtx(txn, logger, id), p, args)
}

// run invokes the procedure and copies its rows out while the transaction is
// still open.
func (e *Executor) run(pctx *proc.Ctx, p *registry.Procedure, args []cty.Value) (*executor.Result, error) {
	rows, err := p.Invoke(pctx, args)
	if err != nil {
		return nil, err
	}

	res := &executor.Result{Columns: columns(p, rows), Rows: make([]map[string]any, 0, len(rows))}
	for i, row := range rows {
		out := make(map[string]any, len(row))
		for k, v := range row {
			gv, err := executor.Materialize(v)
			if err != nil {
				return nil, fmt.Errorf("row %d, field %q: %w", i, k, err)
			}
			out[k] = gv
		}
		res.Rows = append(res.Rows, out)
	}
	return res, nil
}

// columns lists the declared result fields in declaration order, or the sorted
// union of row keys when the procedure declares none.
func columns(p *registry.Procedure, rows []signature.Row) []string {
	if results := p.Results(); len(results) > 0 {
		cols := make([]string, len(results))
		for i, r := range results {
			cols[i] = r.Name
		}
		return cols
	}
	seen := map[string]bool{}
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	slices.Sort(cols)
	return cols
}
