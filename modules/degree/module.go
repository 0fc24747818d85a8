// Package degree computes degree statistics over the whole graph.
package degree

import (
	_ "embed"
	"fmt"
	"math"

	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/proc"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//go:embed manifest.hcl
var manifestSrc []byte

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Register registers the handler and manifest with the engine.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterHandler("DegreeStats", Stats)
	h.RegisterManifest("degree/manifest.hcl", manifestSrc)
}

// Stats returns the vertex count and the mean, sample standard deviation and
// maximum of the vertex degrees in the given direction.
func Stats(ctx *proc.Ctx, direction string) (proc.Record, error) {
	g, err := ctx.Graph()
	if err != nil {
		return nil, err
	}
	vertices, err := g.Vertices()
	if err != nil {
		return nil, err
	}

	var degrees []float64
	for v, err := range vertices.All() {
		if err != nil {
			return nil, err
		}
		d, err := degreeOf(v, direction)
		if err != nil {
			return nil, err
		}
		degrees = append(degrees, float64(d))
	}

	rec := proc.Record{"count": len(degrees), "mean": 0.0, "stddev": 0.0, "max": 0.0}
	if len(degrees) == 0 {
		return rec, nil
	}
	mean, std := stat.MeanStdDev(degrees, nil)
	if math.IsNaN(std) {
		std = 0
	}
	rec["mean"] = mean
	rec["stddev"] = std
	rec["max"] = floats.Max(degrees)

	ctx.Logger().Debug("Degree stats computed.", "direction", direction, "vertices", len(degrees))
	return rec, nil
}

func degreeOf(v *proc.Vertex, direction string) (int, error) {
	var sides []func() (*proc.Edges, error)
	switch direction {
	case "out":
		sides = append(sides, v.OutEdges)
	case "in":
		sides = append(sides, v.InEdges)
	case "both":
		sides = append(sides, v.OutEdges, v.InEdges)
	default:
		return 0, fmt.Errorf("direction must be \"out\", \"in\" or \"both\", got %q", direction)
	}

	n := 0
	for _, side := range sides {
		edges, err := side()
		if err != nil {
			return 0, err
		}
		for _, err := range edges.All() {
			if err != nil {
				return 0, err
			}
			n++
		}
	}
	return n, nil
}
