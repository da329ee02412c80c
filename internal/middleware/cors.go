// Package middleware provides reusable HTTP middleware for the SecureCheck API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// preflightMaxAge is how long, in seconds, browsers may cache a preflight.
const preflightMaxAge = 600

// NewCORSHandler lets browser clients on allowedOrigins call the API.
// Origins are full scheme+host values without a trailing slash.
//
// The API is unauthenticated, so the only request header a client needs is
// Content-Type for JSON bodies. Content-Disposition is exposed so the CSV
// export keeps its filename across origins.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         preflightMaxAge,
	})
	return c.Handler
}
