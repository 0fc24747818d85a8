package app

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ParseArgs turns command-line arguments into values. Each argument is an HCL
// expression without variables, e.g. `42`, `"ada"`, `[1, 2]` or
// `{since = 2020}`. A bare word is taken as a string.
func ParseArgs(raw []string) ([]cty.Value, error) {
	out := make([]cty.Value, 0, len(raw))
	for i, src := range raw {
		v, err := parseArg(src, fmt.Sprintf("arg%d", i+1))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseArg(src, name string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), name, hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("argument %q: %w", src, diags)
	}
	if t, ok := expr.(*hclsyntax.ScopeTraversalExpr); ok && len(t.Traversal) == 1 {
		return cty.StringVal(t.Traversal.RootName()), nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("argument %q: %w", src, diags)
	}
	return v, nil
}
