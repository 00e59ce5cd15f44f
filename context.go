package sessionauth

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type requestIDContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for per-IP login throttling and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx for audit events.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithRequestID attaches a correlation id that is copied into audit events.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the id set by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDContextKey{})
}

// ClientIPFromContext returns the address set by WithClientIP.
func ClientIPFromContext(ctx context.Context) string {
	return stringFromContext(ctx, clientIPContextKey{})
}

// UserAgentFromContext returns the value set by WithUserAgent.
func UserAgentFromContext(ctx context.Context) string {
	return stringFromContext(ctx, userAgentContextKey{})
}

func stringFromContext(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
