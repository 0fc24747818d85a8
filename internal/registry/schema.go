package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ArgsSchema describes the procedure arguments as a JSON object schema keyed
// by argument name.
func (p *Procedure) ArgsSchema() *jsonschema.Schema {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := &jsonschema.Schema{
		Type:        "object",
		Title:       p.Name() + " arguments",
		Description: p.description,
		Properties:  make(map[string]*jsonschema.Schema, len(p.args)),
	}
	for _, a := range p.args {
		prop := TypeSchema(a.Type)
		if a.Default != nil {
			if raw, err := (ctyjson.SimpleJSONValue{Value: *a.Default}).MarshalJSON(); err == nil {
				prop.Default = json.RawMessage(raw)
			}
		} else {
			s.Required = append(s.Required, a.Name)
		}
		s.Properties[a.Name] = prop
	}
	return s
}

// ResultSchema describes one result record. A procedure without declared
// result fields gets an open object schema.
func (p *Procedure) ResultSchema() *jsonschema.Schema {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := &jsonschema.Schema{
		Type:  "object",
		Title: p.Name() + " result",
	}
	if len(p.results) == 0 {
		return s
	}
	s.Properties = make(map[string]*jsonschema.Schema, len(p.results))
	s.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
	for _, r := range p.results {
		prop := TypeSchema(r.Type)
		prop.Deprecated = r.Deprecated
		s.Properties[r.Name] = prop
	}
	return s
}

// TypeSchema maps a cty type to the JSON Schema of its materialized form.
// Graph values are described by the shape the executor emits for them.
func TypeSchema(ty cty.Type) *jsonschema.Schema {
	switch {
	case ty.Equals(cty.String):
		return &jsonschema.Schema{Type: "string"}
	case ty.Equals(cty.Number):
		return &jsonschema.Schema{Type: "number"}
	case ty.Equals(cty.Bool):
		return &jsonschema.Schema{Type: "boolean"}
	case ty.Equals(proc.VertexCapsule):
		return vertexSchema()
	case ty.Equals(proc.EdgeCapsule):
		return edgeSchema()
	case ty.Equals(proc.PathCapsule):
		return &jsonschema.Schema{
			Type:        "object",
			Description: "graph path",
			Properties: map[string]*jsonschema.Schema{
				"vertices": {Type: "array", Items: vertexSchema()},
				"edges":    {Type: "array", Items: edgeSchema()},
			},
			Required: []string{"vertices", "edges"},
		}
	case ty.IsListType(), ty.IsSetType():
		return &jsonschema.Schema{Type: "array", Items: TypeSchema(ty.ElementType())}
	case ty.IsMapType():
		return &jsonschema.Schema{Type: "object", AdditionalProperties: TypeSchema(ty.ElementType())}
	case ty.IsObjectType():
		attrs := ty.AttributeTypes()
		s := &jsonschema.Schema{Type: "object", Properties: make(map[string]*jsonschema.Schema, len(attrs))}
		for name, at := range attrs {
			s.Properties[name] = TypeSchema(at)
			s.Required = append(s.Required, name)
		}
		sort.Strings(s.Required)
		return s
	case ty.IsTupleType():
		return &jsonschema.Schema{Type: "array"}
	}
	return &jsonschema.Schema{}
}

func vertexSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "graph vertex",
		Properties: map[string]*jsonschema.Schema{
			"id":         {Type: "integer"},
			"labels":     {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"properties": {Type: "object"},
		},
		Required: []string{"id", "labels", "properties"},
	}
}

func edgeSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "graph edge",
		Properties: map[string]*jsonschema.Schema{
			"id":         {Type: "integer"},
			"type":       {Type: "string"},
			"from":       {Type: "integer"},
			"to":         {Type: "integer"},
			"properties": {Type: "object"},
		},
		Required: []string{"id", "type", "from", "to", "properties"},
	}
}

// TypeName renders a cty type in manifest syntax.
func TypeName(ty cty.Type) string {
	switch {
	case ty.Equals(cty.DynamicPseudoType):
		return "any"
	case ty.Equals(cty.String):
		return "string"
	case ty.Equals(cty.Number):
		return "number"
	case ty.Equals(cty.Bool):
		return "bool"
	case ty.Equals(proc.VertexCapsule):
		return "vertex"
	case ty.Equals(proc.EdgeCapsule):
		return "edge"
	case ty.Equals(proc.PathCapsule):
		return "path"
	case ty.IsListType():
		return "list(" + TypeName(ty.ElementType()) + ")"
	case ty.IsSetType():
		return "set(" + TypeName(ty.ElementType()) + ")"
	case ty.IsMapType():
		return "map(" + TypeName(ty.ElementType()) + ")"
	case ty.IsObjectType():
		attrs := ty.AttributeTypes()
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = name + " = " + TypeName(attrs[name])
		}
		return "object({" + strings.Join(parts, ", ") + "})"
	}
	return ty.FriendlyName()
}

func formatValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	raw, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", TypeName(v.Type()))
	}
	return string(raw)
}
