package executor

import (
	"fmt"
	"math/big"

	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
)

// Materialize converts a cty value into plain Go values. Vertices, edges and
// paths become maps, so it must run before the invocation ends.
func Materialize(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("unknown value of type %s", v.Type().FriendlyName())
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		return number(v.AsBigFloat()), nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := Materialize(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			gv, err := Materialize(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	case ty.IsCapsuleType():
		return capsule(v.EncapsulatedValue())
	}
	return nil, fmt.Errorf("cannot materialize value of type %s", ty.FriendlyName())
}

func number(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return i
		}
	}
	x, _ := f.Float64()
	return x
}

func capsule(v any) (any, error) {
	switch x := v.(type) {
	case *proc.Vertex:
		return vertexMap(x)
	case *proc.Edge:
		return edgeMap(x)
	case *proc.Path:
		return pathMap(x)
	}
	return nil, fmt.Errorf("cannot materialize %T", v)
}

func vertexMap(v *proc.Vertex) (map[string]any, error) {
	id, err := v.ID()
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
	props, err := v.Properties()
	if err != nil {
		return nil, err
	}
	pm, err := propertyMap(props)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": id, "labels": names, "properties": pm}, nil
}

func edgeMap(e *proc.Edge) (map[string]any, error) {
	id, err := e.ID()
	if err != nil {
		return nil, err
	}
	typ, err := e.Type()
	if err != nil {
		return nil, err
	}
	from, err := e.FromVertex()
	if err != nil {
		return nil, err
	}
	to, err := e.ToVertex()
	if err != nil {
		return nil, err
	}
	fromID, err := from.ID()
	if err != nil {
		return nil, err
	}
	toID, err := to.ID()
	if err != nil {
		return nil, err
	}
	props, err := e.Properties()
	if err != nil {
		return nil, err
	}
	pm, err := propertyMap(props)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": id, "type": typ.Name, "from": fromID, "to": toID, "properties": pm}, nil
}

func pathMap(p *proc.Path) (map[string]any, error) {
	vertices := make([]any, 0, p.Len()+1)
	for _, v := range p.Vertices() {
		m, err := vertexMap(v)
		if err != nil {
			return nil, err
		}
		vertices = append(vertices, m)
	}
	edges := make([]any, 0, p.Len())
	for _, e := range p.Edges() {
		m, err := edgeMap(e)
		if err != nil {
			return nil, err
		}
		edges = append(edges, m)
	}
	return map[string]any{"vertices": vertices, "edges": edges}, nil
}

func propertyMap(props *proc.Properties) (map[string]any, error) {
	out := map[string]any{}
	for p, err := range props.Items() {
		if err != nil {
			return nil, err
		}
		gv, err := Materialize(p.Value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		out[p.Name] = gv
	}
	return out, nil
}
