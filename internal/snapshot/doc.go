// Package snapshot fills a memstore.Store from a graph snapshot on disk,
// either a YAML document or a SQLite database.
//
// The YAML form lists vertices and edges; property maps keep their document
// order:
//
//	vertices:
//	  - id: 1
//	    labels: [Person]
//	    properties: {name: ada, age: 36}
//	edges:
//	  - {from: 1, to: 2, type: KNOWS, properties: {since: 2020}}
//
// The SQLite form uses the tables created by Schema. Property values are
// stored as JSON text. Edge ids are assigned by the store in load order.
package snapshot
