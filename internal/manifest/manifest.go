// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/fsutil"
	"github.com/vk/procbridge/internal/signature"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Module is one `module` block.
type Module struct {
	Name       string
	FilePath   string
	Procedures []*Procedure
}

// Procedure is one `procedure` block inside a module.
type Procedure struct {
	Name        string
	Handler     string
	Description string
	Args        []Arg
	Results     []Result

	// DeclaresResults is false when the block has no `result` blocks, in
	// which case records are not checked.
	DeclaresResults bool
	DefRange        hcl.Range
}

// Arg is one `arg` block. A nil Default makes the argument required.
type Arg struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
}

// Result is one `result` block.
type Result struct {
	Name        string
	Type        cty.Type
	Description string
	Deprecated  bool
}

// Signature converts the manifest declaration into the binder's descriptor.
func (p *Procedure) Signature() signature.Signature {
	sig := signature.Signature{Description: p.Description}
	for _, a := range p.Args {
		spec := signature.Required(a.Name, a.Type)
		if a.Default != nil {
			spec = signature.Optional(a.Name, a.Type, *a.Default)
		}
		spec.Description = a.Description
		sig.Args = append(sig.Args, spec)
	}
	if p.DeclaresResults {
		sig.Results = signature.Returns()
		for _, r := range p.Results {
			f := signature.Field(r.Name, r.Type)
			f.Deprecated = r.Deprecated
			f.Description = r.Description
			sig.Results.Fields = append(sig.Results.Fields, f)
		}
	}
	return sig
}

type fileRoot struct {
	Modules []*hclModule `hcl:"module,block"`
}

type hclModule struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

var moduleBodySchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "procedure", LabelNames: []string{"name"}},
	},
}

var procedureBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "handler", Required: true},
		{Name: "description"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "arg", LabelNames: []string{"name"}},
		{Type: "result", LabelNames: []string{"name"}},
	},
}

var argBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// Checked by hand for a better message.
		{Name: "type"},
		{Name: "description"},
		{Name: "default"},
	},
}

var resultBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "description"},
		{Name: "deprecated"},
	},
}

// Parse decodes all module blocks in src.
func Parse(ctx context.Context, src []byte, filename string) ([]*Module, hcl.Diagnostics) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	return decodeFile(ctx, file, filename)
}

// ParseFile reads and decodes one manifest file.
func ParseFile(ctx context.Context, path string) ([]*Module, hcl.Diagnostics) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, diags
	}
	return decodeFile(ctx, file, path)
}

// LoadDir parses every .hcl file below dir. Modules declared in several files
// are merged.
func LoadDir(ctx context.Context, dir string) ([]*Module, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading manifests.", "path", dir)

	paths, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to walk modules directory %s: %w", dir, err)
	}
	if len(paths) == 0 {
		logger.Warn("No .hcl manifest files found in path", "path", dir)
		return nil, nil
	}

	var files [][]*Module
	for _, path := range paths {
		mods, diags := ParseFile(ctx, path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to load manifest %s: %w", path, diags)
		}
		files = append(files, mods)
	}
	return Merge(files...)
}

// Merge combines modules from several sources, keeping the first-seen order.
// A procedure declared twice in the same module is an error.
func Merge(sources ...[]*Module) ([]*Module, error) {
	var out []*Module
	byName := make(map[string]*Module)
	for _, mods := range sources {
		for _, m := range mods {
			existing, ok := byName[m.Name]
			if !ok {
				cp := *m
				cp.Procedures = append([]*Procedure(nil), m.Procedures...)
				byName[m.Name] = &cp
				out = append(out, &cp)
				continue
			}
			for _, p := range m.Procedures {
				for _, q := range existing.Procedures {
					if q.Name == p.Name {
						return nil, fmt.Errorf("procedure %s.%s is declared in both %s and %s",
							m.Name, p.Name, existing.FilePath, m.FilePath)
					}
				}
				existing.Procedures = append(existing.Procedures, p)
			}
		}
	}
	return out, nil
}

func decodeFile(ctx context.Context, file *hcl.File, filename string) ([]*Module, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)

	var root fileRoot
	diags := gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, diags
	}

	modules := make([]*Module, 0, len(root.Modules))
	seen := make(map[string]struct{})
	for _, hm := range root.Modules {
		if _, dup := seen[hm.Name]; dup {
			r := hm.Body.MissingItemRange()
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate module block",
				Detail:   fmt.Sprintf("Module %q is already declared in this file.", hm.Name),
				Subject:  &r,
			})
			continue
		}
		seen[hm.Name] = struct{}{}

		content, contentDiags := hm.Body.Content(moduleBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		m := &Module{Name: hm.Name, FilePath: filename}
		names := make(map[string]struct{})
		for _, block := range content.Blocks.OfType("procedure") {
			name := block.Labels[0]
			if _, dup := names[name]; dup {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate procedure definition",
					Detail:   fmt.Sprintf("A procedure named '%s' has already been defined in module '%s'.", name, hm.Name),
					Subject:  &block.DefRange,
				})
				continue
			}
			names[name] = struct{}{}

			p, procDiags := decodeProcedure(block)
			diags = append(diags, procDiags...)
			if p != nil {
				m.Procedures = append(m.Procedures, p)
			}
		}
		modules = append(modules, m)
	}

	if diags.HasErrors() {
		return nil, diags
	}
	logger.Debug("Parsed manifest.", "file", filename, "modules", len(modules))
	return modules, diags
}

func decodeProcedure(block *hcl.Block) (*Procedure, hcl.Diagnostics) {
	content, diags := block.Body.Content(procedureBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	p := &Procedure{Name: block.Labels[0], DefRange: block.DefRange}
	diags = append(diags, gohcl.DecodeExpression(content.Attributes["handler"].Expr, nil, &p.Handler)...)
	if attr, ok := content.Attributes["description"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &p.Description)...)
	}

	var argDiags, resultDiags hcl.Diagnostics
	p.Args, argDiags = decodeArgs(content.Blocks.OfType("arg"))
	p.Results, resultDiags = decodeResults(content.Blocks.OfType("result"))
	p.DeclaresResults = len(content.Blocks.OfType("result")) > 0
	diags = append(diags, argDiags...)
	diags = append(diags, resultDiags...)

	if diags.HasErrors() {
		return nil, diags
	}
	return p, diags
}

func decodeArgs(blocks hcl.Blocks) ([]Arg, hcl.Diagnostics) {
	var (
		diags hcl.Diagnostics
		args  []Arg
	)
	seen := make(map[string]struct{})
	for _, block := range blocks {
		name := block.Labels[0]
		if _, dup := seen[name]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate argument definition",
				Detail:   fmt.Sprintf("An argument named '%s' has already been defined.", name),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[name] = struct{}{}

		content, contentDiags := block.Body.Content(argBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		typeAttr, ok := content.Attributes["type"]
		if !ok {
			missing := block.Body.MissingItemRange()
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing 'type' attribute",
				Detail:   "The 'type' attribute is required for all arg blocks.",
				Subject:  &missing,
			})
			continue
		}
		ty, typeDiags := ParseType(typeAttr.Expr)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}

		arg := Arg{Name: name, Type: ty}
		if attr, ok := content.Attributes["description"]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &arg.Description)...)
		}
		if attr, ok := content.Attributes["default"]; ok {
			// Defaults must be literals, so there is no evaluation context.
			val, valDiags := attr.Expr.Value(nil)
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				continue
			}
			converted, err := convert.Convert(val, ty)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid default value type",
					Detail:   fmt.Sprintf("The default value for '%s' is not compatible with its type, '%s': %s.", name, ty.FriendlyName(), err),
					Subject:  attr.Expr.Range().Ptr(),
				})
				continue
			}
			arg.Default = &converted
		}
		args = append(args, arg)
	}
	return args, diags
}

func decodeResults(blocks hcl.Blocks) ([]Result, hcl.Diagnostics) {
	var (
		diags   hcl.Diagnostics
		results []Result
	)
	seen := make(map[string]struct{})
	for _, block := range blocks {
		name := block.Labels[0]
		if _, dup := seen[name]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate result definition",
				Detail:   fmt.Sprintf("A result named '%s' has already been defined.", name),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[name] = struct{}{}

		content, contentDiags := block.Body.Content(resultBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		ty, typeDiags := ParseType(content.Attributes["type"].Expr)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}

		r := Result{Name: name, Type: ty}
		if attr, ok := content.Attributes["description"]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &r.Description)...)
		}
		if attr, ok := content.Attributes["deprecated"]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &r.Deprecated)...)
		}
		results = append(results, r)
	}
	return results, diags
}
