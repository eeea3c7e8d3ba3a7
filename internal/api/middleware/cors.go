package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// corsMaxAge is how long, in seconds, browsers may cache a preflight answer.
const corsMaxAge = 300

// CORS answers preflight requests and adds the cross-origin headers to every
// response for a request carrying an Origin. Credentials are allowed, so the
// request's origin is echoed back instead of a wildcard.
var CORS = cors.Handler(cors.Options{
	AllowOriginFunc:  func(_ *http.Request, origin string) bool { return origin != "" },
	AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	AllowedHeaders:   []string{"Authorization", "Content-Type"},
	AllowCredentials: true,
	MaxAge:           corsMaxAge,
})
