package namewrap

import "context"

type clientIPContextKey struct{}
type correlationIDContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine copies it
// into audit events so operations can be traced back to their network origin.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithCorrelationID attaches a request correlation identifier to ctx. The
// Engine copies it into audit events so multi-operation flows can be stitched
// together downstream. When absent, events carry only their own identifier.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey{}, correlationID)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func correlationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	correlationID, _ := ctx.Value(correlationIDContextKey{}).(string)
	return correlationID
}
