package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/manifest"
	"github.com/vk/procbridge/internal/registry"
	"github.com/vk/procbridge/internal/signature"
	"github.com/vk/procbridge/modules/degree"
	"github.com/vk/procbridge/modules/echo"
	"github.com/vk/procbridge/modules/graphinfo"
)

// coreModules is the definitive list of all modules that are compiled into
// the procbridge binary.
var coreModules = []handlers.Module{
	&echo.Module{},
	&graphinfo.Module{},
	&degree.Module{},
}

// BuildRegistry loads the manifests of h and those below modulesPath, binds
// them to the handlers of h and validates the result.
func BuildRegistry(ctx context.Context, h *handlers.Handlers, modulesPath string) (*registry.Registry, error) {
	mods, err := loadManifests(ctx, h, modulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifests: %w", err)
	}

	reg := registry.New()
	if err := bindProcedures(ctx, reg, h, mods); err != nil {
		return nil, err
	}
	if err := reg.Validate(ctx); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Registry validation passed.")
	return reg, nil
}

// loadManifests parses the manifests embedded by modules and, when the
// directory exists, the manifests found below dir.
func loadManifests(ctx context.Context, h *handlers.Handlers, dir string) ([]*manifest.Module, error) {
	logger := ctxlog.FromContext(ctx)

	var sources [][]*manifest.Module
	for _, m := range h.Manifests() {
		mods, diags := manifest.Parse(ctx, m.Source, m.Filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("embedded manifest %s: %w", m.Filename, diags)
		}
		sources = append(sources, mods)
	}

	if dir != "" {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("Modules path does not exist, skipping.", "path", dir)
		} else {
			mods, err := manifest.LoadDir(ctx, dir)
			if err != nil {
				return nil, err
			}
			sources = append(sources, mods)
		}
	}
	return manifest.Merge(sources...)
}

// bindProcedures joins manifest declarations with Go handlers and binds each
// pair into reg. Every mismatch is collected before failing.
func bindProcedures(ctx context.Context, reg *registry.Registry, h *handlers.Handlers, mods []*manifest.Module) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string
	used := make(map[string]bool)

	for _, mm := range mods {
		target, err := reg.Module(mm.Name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("module '%s': %v", mm.Name, err))
			continue
		}
		for _, p := range mm.Procedures {
			fq := mm.Name + "." + p.Name
			fn, ok := h.Lookup(p.Handler)
			if !ok {
				errs = append(errs, fmt.Sprintf("procedure '%s': handler '%s' is not registered", fq, p.Handler))
				continue
			}
			used[p.Handler] = true
			if _, err := signature.ReadProc(ctx, target, p.Name, fn, p.Signature()); err != nil {
				errs = append(errs, fmt.Sprintf("procedure '%s' (%s): %v", fq, p.DefRange, err))
				continue
			}
			logger.Debug("Procedure bound.", "procedure", fq, "handler", p.Handler)
		}
	}

	for _, name := range h.Names() {
		if !used[name] {
			logger.Warn("Go handler is registered but no manifest declares it.", "handler", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("procedure binding failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
