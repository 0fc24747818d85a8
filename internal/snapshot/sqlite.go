package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/memstore"
	"github.com/zclconf/go-cty/cty"

	_ "modernc.org/sqlite"
)

// Schema creates the tables LoadSQLite reads.
const Schema = `
CREATE TABLE IF NOT EXISTS vertices (
	id INTEGER PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS vertex_labels (
	vertex_id INTEGER NOT NULL REFERENCES vertices(id),
	position  INTEGER NOT NULL,
	label     TEXT NOT NULL,
	PRIMARY KEY (vertex_id, position)
);
CREATE TABLE IF NOT EXISTS vertex_properties (
	vertex_id INTEGER NOT NULL REFERENCES vertices(id),
	position  INTEGER NOT NULL,
	name      TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (vertex_id, position)
);
CREATE TABLE IF NOT EXISTS edges (
	id      INTEGER PRIMARY KEY,
	from_id INTEGER NOT NULL REFERENCES vertices(id),
	to_id   INTEGER NOT NULL REFERENCES vertices(id),
	type    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS edge_properties (
	edge_id  INTEGER NOT NULL REFERENCES edges(id),
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (edge_id, position)
);
`

// OpenSQLite opens a snapshot database. The file must already exist.
func OpenSQLite(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// LoadSQLite reads a snapshot database into s. Vertices and edges are
// inserted first; labels and properties are then applied row by row in
// position order.
func LoadSQLite(ctx context.Context, db *sql.DB, s *memstore.Store) error {
	logger := ctxlog.FromContext(ctx)

	vertices := 0
	err := eachRow(ctx, db, "vertices", "SELECT id FROM vertices ORDER BY id", func(rows *sql.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if err := s.AddVertex(id, nil); err != nil {
			return fmt.Errorf("vertex %d: %w", id, err)
		}
		vertices++
		return nil
	})
	if err != nil {
		return err
	}

	err = eachRow(ctx, db, "vertex_labels",
		"SELECT vertex_id, label FROM vertex_labels ORDER BY vertex_id, position",
		func(rows *sql.Rows) error {
			var (
				id    int64
				label string
			)
			if err := rows.Scan(&id, &label); err != nil {
				return err
			}
			if err := s.AddLabel(id, label); err != nil {
				return fmt.Errorf("label %q: %w", label, err)
			}
			return nil
		})
	if err != nil {
		return err
	}

	err = loadProperties(ctx, db, "vertex_properties", "vertex_id", s.SetVertexProperty)
	if err != nil {
		return err
	}

	// Store edge ids are assigned on insert; the database ids are kept only
	// to attach edge properties.
	edgeIDs := make(map[int64]int64)
	err = eachRow(ctx, db, "edges", "SELECT id, from_id, to_id, type FROM edges ORDER BY id", func(rows *sql.Rows) error {
		var (
			id, from, to int64
			typ          string
		)
		if err := rows.Scan(&id, &from, &to, &typ); err != nil {
			return err
		}
		storeID, err := s.AddEdge(from, to, typ)
		if err != nil {
			return fmt.Errorf("edge %d: %w", id, err)
		}
		edgeIDs[id] = storeID
		return nil
	})
	if err != nil {
		return err
	}

	err = loadProperties(ctx, db, "edge_properties", "edge_id", func(id int64, name string, v cty.Value) error {
		storeID, ok := edgeIDs[id]
		if !ok {
			return fmt.Errorf("%w: id %d", memstore.ErrEdgeNotFound, id)
		}
		return s.SetEdgeProperty(storeID, name, v)
	})
	if err != nil {
		return err
	}

	logger.Debug("Loaded SQLite graph snapshot.", "vertices", vertices, "edges", len(edgeIDs))
	return nil
}

// eachRow runs query and calls fn for every row.
func eachRow(ctx context.Context, db *sql.DB, table, query string, fn func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("reading %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s: %w", table, err)
	}
	return nil
}

// loadProperties reads an ordered property table keyed by owner id and hands
// every decoded value to set. table and ownerCol are package constants, never
// user input.
func loadProperties(ctx context.Context, db *sql.DB, table, ownerCol string, set func(int64, string, cty.Value) error) error {
	query := fmt.Sprintf("SELECT %s, name, value FROM %s ORDER BY %s, position", ownerCol, table, ownerCol)
	return eachRow(ctx, db, table, query, func(rows *sql.Rows) error {
		var (
			id         int64
			name, text string
		)
		if err := rows.Scan(&id, &name, &text); err != nil {
			return err
		}
		val, err := decodeJSON(text)
		if err != nil {
			return fmt.Errorf("owner %d, property %q: %w", id, name, err)
		}
		if err := set(id, name, val); err != nil {
			return fmt.Errorf("owner %d, property %q: %w", id, name, err)
		}
		return nil
	})
}

func decodeJSON(text string) (cty.Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return cty.NilVal, fmt.Errorf("invalid JSON value: %w", err)
	}
	return toCty(raw)
}
