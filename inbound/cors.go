package inbound

import (
	"net/http"

	"github.com/rs/cors"
)

// WithCORS wraps handler so browser wallets on allowedOrigins can call the
// intake and offer routes. An empty list allows any origin.
func WithCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(
		cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
		},
	).Handler(handler)
}
