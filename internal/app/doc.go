// Package app assembles the service from configuration: logger, session
// store, backend, roles, tab registry, HTTP surface and server lifecycle.
package app
