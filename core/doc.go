// Package core routes URLs handed over by the platform to the operations
// waiting for them. Credential offers are queued for a single consumer in
// arrival order; app-link redirects resolve the wait registered for their
// state token. Transport and storage adapters depend on this package, never
// the other way around.
package core
