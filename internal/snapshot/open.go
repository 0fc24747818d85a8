package snapshot

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/procbridge/internal/config"
	"github.com/vk/procbridge/internal/memstore"
)

// Open builds a store from the configured snapshot. With no source configured
// the store is empty.
func Open(ctx context.Context, cfg config.GraphConfig) (*memstore.Store, error) {
	s := memstore.New()
	switch {
	case cfg.YAML != "":
		f, err := os.Open(cfg.YAML)
		if err != nil {
			return nil, fmt.Errorf("opening graph snapshot: %w", err)
		}
		defer f.Close()
		if err := LoadYAML(ctx, f, s); err != nil {
			return nil, fmt.Errorf("loading %s: %w", cfg.YAML, err)
		}
	case cfg.SQLite != "":
		db, err := OpenSQLite(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if err := LoadSQLite(ctx, db, s); err != nil {
			return nil, fmt.Errorf("loading %s: %w", cfg.SQLite, err)
		}
	}
	return s, nil
}
