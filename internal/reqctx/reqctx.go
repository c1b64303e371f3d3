// Package reqctx carries per-operation attribution (actor, client IP,
// inbound channel) through context.Context. It replaces ambient storage:
// the value is established when an operation starts, travels only along
// the call chain, and can never leak into an unrelated operation.
package reqctx

import (
	"context"
	"net/http"
	"strings"
)

// Channel is the logical surface an operation arrived through.
type Channel string

const (
	ChannelPublic Channel = "public"
	ChannelAdmin  Channel = "admin"
)

// RequestContext identifies who triggered the current operation and how.
// A nil *RequestContext means a background/system-triggered operation.
type RequestContext struct {
	// Actor is the authenticated username, nil for anonymous callers.
	Actor *string
	// IP is the client address, nil when unknown.
	IP *string
	// Channel distinguishes the admin surface from the public API.
	Channel Channel
}

type ctxKey struct{}

// With returns a child context carrying rc.
func With(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// From extracts the request context, or nil when the operation is
// system-triggered (workers, crons, tests without an inbound request).
func From(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(ctxKey{}).(*RequestContext)
	return rc
}

// ClientIP resolves the caller address, preferring the first entry of
// X-Forwarded-For over the direct connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
