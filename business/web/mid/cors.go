package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/utxochain/foundation/web"
)

// corsMaxAge is how long in seconds a browser may cache a preflight answer.
const corsMaxAge = "86400"

// Cors allows browsers served from the origin to call the public api. The
// node only serves GET and POST, so a preflight request is answered here
// without reaching a handler.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			hdr.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
			hdr.Set("Access-Control-Max-Age", corsMaxAge)
			if origin != "*" {
				hdr.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
