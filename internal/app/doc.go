// Package app wires configuration, manifests, Go modules and the graph
// snapshot into an App, and exposes the commands the CLI and the HTTP server
// run against it: call, list, describe, validate and serve.
package app
