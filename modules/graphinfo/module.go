// Package graphinfo provides procedures that read single vertices and the
// walks leaving them.
package graphinfo

import (
	_ "embed"
	"fmt"

	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/proc"
)

//go:embed manifest.hcl
var manifestSrc []byte

// MaxHops bounds the walk length; the number of walks grows exponentially
// with it.
const MaxHops = 8

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Register registers the handlers and manifest with the engine.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterHandler("GraphinfoVertex", Vertex)
	h.RegisterHandler("GraphinfoWalk", Walk)
	h.RegisterManifest("graphinfo/manifest.hcl", manifestSrc)
}

// Vertex returns the vertex with the given id, its label names and the number
// of its outgoing edges.
func Vertex(ctx *proc.Ctx, id int64) (proc.Record, error) {
	g, err := ctx.Graph()
	if err != nil {
		return nil, err
	}
	v, err := g.VertexByID(id)
	if err != nil {
		return nil, err
	}

	labels, err := v.Labels()
	if err != nil {
		return nil, err
	}
	names := []string{}
	for l, err := range labels.All() {
		if err != nil {
			return nil, err
		}
		names = append(names, l.Name)
	}

	out, err := v.OutEdges()
	if err != nil {
		return nil, err
	}
	degree := 0
	for _, err := range out.All() {
		if err != nil {
			return nil, err
		}
		degree++
	}

	return proc.Record{"vertex": v, "labels": names, "out_degree": degree}, nil
}

// Walk returns one record per outgoing walk of exactly hops edges starting at
// the vertex with the given id. Walks that dead-end earlier are dropped.
func Walk(ctx *proc.Ctx, id int64, hops int64) ([]proc.Record, error) {
	if hops < 0 || hops > MaxHops {
		return nil, fmt.Errorf("hops must be between 0 and %d, got %d", MaxHops, hops)
	}
	g, err := ctx.Graph()
	if err != nil {
		return nil, err
	}
	start, err := g.VertexByID(id)
	if err != nil {
		return nil, err
	}

	w := walker{start: start, hops: int(hops)}
	if err := w.visit(start, nil); err != nil {
		return nil, err
	}
	ctx.Logger().Debug("Walk finished.", "start", id, "hops", hops, "paths", len(w.out))
	return w.out, nil
}

type walker struct {
	start *proc.Vertex
	hops  int
	out   []proc.Record
}

func (w *walker) visit(at *proc.Vertex, trail []*proc.Edge) error {
	if len(trail) == w.hops {
		p, err := proc.NewPath(w.start)
		if err != nil {
			return err
		}
		for _, e := range trail {
			if err := p.Expand(e); err != nil {
				return err
			}
		}
		w.out = append(w.out, proc.Record{"path": p})
		return nil
	}

	edges, err := at.OutEdges()
	if err != nil {
		return err
	}
	for e, err := range edges.All() {
		if err != nil {
			return err
		}
		next, err := e.ToVertex()
		if err != nil {
			return err
		}
		if err := w.visit(next, append(trail[:len(trail):len(trail)], e)); err != nil {
			return err
		}
	}
	return nil
}
