package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/vk/procbridge/internal/ctxlog"
)

// Call invokes a procedure and prints every row as one JSON line.
func (a *App) Call(ctx context.Context, name string, rawArgs []string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	args, err := ParseArgs(rawArgs)
	if err != nil {
		return err
	}
	res, err := a.executor.Call(ctx, name, args)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.outW)
	for _, row := range res.Rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	a.logger.Info("Call finished.", "procedure", res.Procedure, "rows", len(res.Rows))
	return nil
}

// List prints the signature of every registered procedure, one per line.
func (a *App) List(ctx context.Context) error {
	for _, p := range a.registry.Procedures() {
		if _, err := fmt.Fprintln(a.outW, p.String()); err != nil {
			return err
		}
	}
	return nil
}

// procedureDoc is the JSON description of a procedure.
type procedureDoc struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Signature   string             `json:"signature"`
	Args        *jsonschema.Schema `json:"args"`
	Results     *jsonschema.Schema `json:"results"`
}

// Describe prints the argument and result JSON schemas of a procedure.
func (a *App) Describe(ctx context.Context, name string) error {
	p, err := a.registry.Lookup(name)
	if err != nil {
		return err
	}
	doc := procedureDoc{
		Name:        p.Name(),
		Description: p.Description(),
		Signature:   p.String(),
		Args:        p.ArgsSchema(),
		Results:     p.ResultSchema(),
	}
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Validate reports the loaded modules. Loading already failed on any binding
// problem, so reaching this point means the configuration is consistent.
func (a *App) Validate(ctx context.Context) error {
	procs := a.registry.Procedures()
	a.logger.Info("Validation passed.", "modules", len(a.registry.Modules()), "procedures", len(procs))
	_, err := fmt.Fprintf(a.outW, "ok: %d modules, %d procedures\n", len(a.registry.Modules()), len(procs))
	return err
}
