// Package httpmiddleware provides net/http middleware for the storefront API:
// request IDs, logging, tracing, CORS, rate limiting and panic recovery.
package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware is the outermost.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// routeKey is the context key for the matched route holder.
type routeKey struct{}

type route struct {
	pattern string
}

// withRoute returns r carrying a route holder, reusing one installed by an
// outer middleware.
func withRoute(r *http.Request) (*http.Request, *route) {
	if rt, ok := r.Context().Value(routeKey{}).(*route); ok {
		return r, rt
	}
	rt := &route{}
	return r.WithContext(context.WithValue(r.Context(), routeKey{}, rt)), rt
}

// Route returns the pattern matched for the request, once Labeler has run.
func Route(ctx context.Context) string {
	if rt, ok := ctx.Value(routeKey{}).(*route); ok {
		return rt.pattern
	}
	return ""
}

// Labeler records the ServeMux pattern that served the request so outer
// middleware can report it. It must wrap the mux directly: ServeMux sets
// Request.Pattern on the request it receives.
func Labeler() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if rt, ok := r.Context().Value(routeKey{}).(*route); ok {
				rt.pattern = r.Pattern
			}
		})
	}
}

// writeError writes the API error body {"code": status, "message": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
