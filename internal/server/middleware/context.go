package middleware

import "context"

type contextKey struct{ name string }

var (
	adminMobileKey = contextKey{"admin_mobile"}
	clientIPKey    = contextKey{"client_ip"}
)

// WithAdmin returns a context carrying the authenticated admin mobile from the session token.
func WithAdmin(ctx context.Context, mobile string) context.Context {
	return context.WithValue(ctx, adminMobileKey, mobile)
}

// GetAdminMobile returns the admin mobile from context and true if set; otherwise "", false.
func GetAdminMobile(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminMobileKey).(string)
	return v, ok
}

// WithClientIP returns a context carrying the resolved client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext returns the client IP stored by ClientIP middleware, or "".
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}
