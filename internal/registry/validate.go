package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Validate checks the registry once loading has finished. Modules without
// procedures are errors; arguments typed 'any' are reported as warnings.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Modules() {
		m, err := r.Module(name)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		procs := m.Procedures()
		if len(procs) == 0 {
			errs = append(errs, fmt.Sprintf("module '%s' declares no procedures", name))
			continue
		}
		for _, p := range procs {
			for _, a := range p.Args() {
				if a.Type.Equals(cty.DynamicPseudoType) {
					logger.Warn("Procedure has argument with 'type = any', which disables static type checking. Consider using a specific type like 'string', 'number', or 'bool'.",
						"procedure", p.Name(), "argument", a.Name)
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "modules", len(r.Modules()), "procedures", len(r.Procedures()))
	return nil
}
