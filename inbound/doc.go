// Package inbound exposes the deep-link service over HTTP.
//
// It carries the HTTPS app-link landing route, a loopback intake for hosts
// that hand URLs over HTTP instead of a platform callback, and a long-poll
// route for pulling credential offers. Failures are written as
// application/problem+json documents.
package inbound
