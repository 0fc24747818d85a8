package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/memstore"
	"gopkg.in/yaml.v3"
)

type yamlDoc struct {
	Vertices []yamlVertex `yaml:"vertices"`
	Edges    []yamlEdge   `yaml:"edges"`
}

type yamlVertex struct {
	ID         int64     `yaml:"id"`
	Labels     []string  `yaml:"labels"`
	Properties yaml.Node `yaml:"properties"`
}

type yamlEdge struct {
	From       int64     `yaml:"from"`
	To         int64     `yaml:"to"`
	Type       string    `yaml:"type"`
	Properties yaml.Node `yaml:"properties"`
}

// LoadYAML reads a YAML snapshot into s.
func LoadYAML(ctx context.Context, r io.Reader, s *memstore.Store) error {
	logger := ctxlog.FromContext(ctx)

	var doc yamlDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding graph yaml: %w", err)
	}

	for i, v := range doc.Vertices {
		props, err := orderedProperties(&v.Properties)
		if err != nil {
			return fmt.Errorf("vertex %d: %w", v.ID, err)
		}
		if err := s.AddVertex(v.ID, v.Labels, props...); err != nil {
			return fmt.Errorf("vertices[%d]: %w", i, err)
		}
	}
	for i, e := range doc.Edges {
		if e.Type == "" {
			return fmt.Errorf("edges[%d]: missing type", i)
		}
		props, err := orderedProperties(&e.Properties)
		if err != nil {
			return fmt.Errorf("edges[%d]: %w", i, err)
		}
		if _, err := s.AddEdge(e.From, e.To, e.Type, props...); err != nil {
			return fmt.Errorf("edges[%d]: %w", i, err)
		}
	}

	logger.Debug("Loaded YAML graph snapshot.", "vertices", len(doc.Vertices), "edges", len(doc.Edges))
	return nil
}

// orderedProperties walks a mapping node so properties keep document order.
func orderedProperties(node *yaml.Node) ([]memstore.Property, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("properties must be a mapping (line %d)", node.Line)
	}

	props := make([]memstore.Property, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, valNode := node.Content[i], node.Content[i+1]
		var raw any
		if err := valNode.Decode(&raw); err != nil {
			return nil, fmt.Errorf("property %q: %w", key.Value, err)
		}
		val, err := toCty(normalize(raw))
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key.Value, err)
		}
		props = append(props, memstore.Property{Name: key.Value, Value: val})
	}
	return props, nil
}

// normalize turns the map[any]any yaml may produce for nested mappings with
// non-string keys into map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	}
	return v
}
