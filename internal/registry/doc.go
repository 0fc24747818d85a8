// Package registry holds the read procedures known to one application
// instance.
//
// Procedures live in named modules and are addressed as "module.procedure".
// A Module is the target the signature binder registers into: it receives the
// invoker of a bound procedure and then its argument and result schema, one
// declaration at a time and in order. Once registered, a Procedure exposes
// that schema to the engine side (the executor and the CLI), including JSON
// Schema views for tooling.
//
// All lookups are safe for concurrent use.
package registry
