package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/carledger/foundation/web"
)

// Cors lets browser dashboards read the ledger from the configured origin.
// Preflight requests are answered here and never reach a handler.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			if r.Method != http.MethodOptions {
				return handler(ctx, w, r)
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")

			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		return h
	}

	return m
}
