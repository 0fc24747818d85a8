// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
)

// ParseType converts a type expression such as `string`, `vertex` or
// `list(number)` into its cty.Type.
func ParseType(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	ty, err := typeExprToCtyType(expr)
	if err != nil {
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return ty, nil
}

func typeExprToCtyType(expr hcl.Expression) (cty.Type, error) {
	switch v := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.NilType, fmt.Errorf("type keyword must be a single identifier")
		}
		switch name := v.Traversal.RootName(); name {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		case "vertex":
			return proc.VertexCapsule, nil
		case "edge":
			return proc.EdgeCapsule, nil
		case "path":
			return proc.PathCapsule, nil
		default:
			return cty.NilType, fmt.Errorf("unknown type keyword %q; supported types are string, number, bool, any, vertex, edge, path, list(T), set(T), map(T) and object({...})", name)
		}

	case *hclsyntax.FunctionCallExpr:
		if v.Name == "object" {
			return objectType(v)
		}
		if len(v.Args) != 1 {
			return cty.NilType, fmt.Errorf("type constructor %s() requires exactly one argument, got %d", v.Name, len(v.Args))
		}
		elem, err := typeExprToCtyType(v.Args[0])
		if err != nil {
			return cty.NilType, err
		}
		if elem.Equals(cty.DynamicPseudoType) {
			return cty.NilType, fmt.Errorf("collection types cannot contain type 'any'")
		}
		switch v.Name {
		case "list":
			return cty.List(elem), nil
		case "set":
			return cty.Set(elem), nil
		case "map":
			return cty.Map(elem), nil
		default:
			return cty.NilType, fmt.Errorf("unknown type constructor %q", v.Name)
		}
	}
	return cty.NilType, fmt.Errorf("unsupported expression for type definition: %T", expr)
}

func objectType(call *hclsyntax.FunctionCallExpr) (cty.Type, error) {
	if len(call.Args) != 1 {
		return cty.NilType, fmt.Errorf("the object() type constructor requires exactly one argument, got %d", len(call.Args))
	}
	obj, ok := call.Args[0].(*hclsyntax.ObjectConsExpr)
	if !ok {
		return cty.NilType, fmt.Errorf("the argument to object() must be an object literal like { key = type, ... }")
	}

	attrs := make(map[string]cty.Type, len(obj.Items))
	for _, item := range obj.Items {
		key := objectKey(item.KeyExpr)
		if key == "" {
			return cty.NilType, fmt.Errorf("object type keys must be identifiers or quoted strings")
		}
		ty, err := typeExprToCtyType(item.ValueExpr)
		if err != nil {
			return cty.NilType, fmt.Errorf("in object attribute %q: %w", key, err)
		}
		attrs[key] = ty
	}
	return cty.Object(attrs), nil
}

func objectKey(expr hclsyntax.Expression) string {
	wrapper, ok := expr.(*hclsyntax.ObjectConsKeyExpr)
	if !ok {
		return ""
	}
	switch k := wrapper.Wrapped.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(k.Traversal) == 1 {
			return k.Traversal.RootName()
		}
	case *hclsyntax.TemplateExpr:
		if len(k.Parts) == 1 {
			if lit, ok := k.Parts[0].(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type().Equals(cty.String) {
				return lit.Val.AsString()
			}
		}
	}
	return ""
}
